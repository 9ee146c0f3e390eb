// Package testutil provides deterministic corpus generators shared by tests
// and benchmarks.
//
// Generators are seeded: the same seed always yields the same entities, so
// failures reproduce. Intended for tests only; not part of the public API
// surface.
package testutil
