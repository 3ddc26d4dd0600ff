// Package decorators builds document decorators from configuration.
//
// Each decorator declared under [decorators.<name>] names a builder with
// its "kind" key, the document types it applies to with "types" (empty
// means all types) and its position in the chain with "order".
package decorators
