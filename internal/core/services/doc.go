// Package services implements the driving port interfaces.
// Services contain the core indexing logic: the collator registry, the
// decorator chain, the pipeline runner, the per-type scheduler and the
// committer that owns the published index state. They orchestrate calls to
// driven ports (collators, decorators, search engine, scheduler store).
package services
