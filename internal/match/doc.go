// Package match locates sensitive-data spans in text.
//
// Matching is pure and stateless per call: identical text and patterns
// produce identical output, so passes can run in parallel across
// documents. The only shared state is the compiled-regex cache, which
// is mutex-guarded. A malformed regex never aborts a pass; it is
// logged and skipped.
package match
