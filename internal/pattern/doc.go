// Package pattern defines sensitive-data detection patterns and the
// registry that owns them.
//
// A Pattern combines regex and literal-example detection strategies
// with exclusions and confidence settings. The Registry is the only
// place pattern state is mutated; matching and feedback live in their
// own packages and treat patterns as read-only input.
package pattern
