// Package whisper wraps the whisper CLI and defines the timed transcript
// segment model shared by the transcription and refinement stages.
package whisper
