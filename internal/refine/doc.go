// Package refine turns accumulated negative feedback into concrete
// pattern edits.
//
// The suggester never synthesizes regex syntax; it proposes the
// lowest-risk remediation for the dominant failure reason and always
// attaches the evidence that drove each proposed field. The applier is
// the only component that mutates registry state, and a human decision
// point sits between the two: there is no unattended path from
// "eligible" to "refined".
package refine
