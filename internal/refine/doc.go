// Package refine implements the transcript correction stage backed by the
// Cerebras chat completion API.
package refine
