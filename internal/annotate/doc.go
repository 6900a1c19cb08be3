// Package annotate implements the vlm stage: gate-checked, video-grounded
// surgical step annotation.
package annotate
