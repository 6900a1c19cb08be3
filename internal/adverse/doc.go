// Package adverse implements the adverse_event stage: taxonomy-bound
// complication detection over annotated surgical timelines.
package adverse
