// Package driving defines the ports that outside actors (CLI, MCP server,
// TUI dashboard) call into: registration, the pipeline runner, the
// scheduler and queries over the published index.
//
// Implementations live in internal/core/services.
package driving
