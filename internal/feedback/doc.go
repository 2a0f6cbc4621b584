// Package feedback records human judgments about matches and derives
// per-pattern accuracy from them.
//
// The store is append-only: corrections are new events, never
// mutations, which keeps accuracy auditable and removes lost-update
// races under concurrent submission. Metrics are always re-aggregated
// from the full event log at read time; no running counters are
// trusted as source of truth.
package feedback
