// Package engine wires the pattern registry, matcher, feedback store,
// accuracy calculator and refinement components into the service
// surface calling services consume.
package engine
