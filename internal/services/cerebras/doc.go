// Package cerebras talks to the Cerebras chat completion API used by the
// transcript refinement and summarization stages.
package cerebras
