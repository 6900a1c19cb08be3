// Package transcribe implements the speech-to-text stage.
package transcribe
