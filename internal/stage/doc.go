// Package stage defines the per-stage handler contract and the shared
// execution loop that applies eligibility, prerequisite and failure
// isolation semantics uniformly across the pipeline.
package stage
