// Package github collates issues from GitHub repositories.
//
// Each issue becomes one document: the title and body are indexed, the
// issue URL is the location, the first assignee (or the author) is the
// owner and the issue state is the lifecycle. Pull requests returned by
// the issues endpoint are skipped.
//
// The collator authenticates with a static token read from the
// environment and throttles requests with golang.org/x/time/rate.
package github
