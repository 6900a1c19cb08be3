// Package hygiene implements the clean stage, removing videos that exceed
// the configured duration cap before any transcription spend.
package hygiene
