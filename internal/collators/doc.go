// Package collators builds document collators from configuration.
//
// Each source declared under [sources.<name>] names a builder with its
// "kind" key. The builder receives the rest of the table and returns a
// driven.Collator that produces the full set of documents for one type.
//
// Built-in kinds:
//   - filesystem: Markdown and text files under a directory
//   - github: issues of one or more GitHub repositories
//   - drive: files in Google Drive folders
//   - calendar: Google Calendar events in a sliding window
//   - gmail: Gmail messages matching labels and a query
//   - dropbox: files in a Dropbox folder tree
package collators
