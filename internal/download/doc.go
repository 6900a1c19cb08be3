// Package download implements the retrieval stage: fetching source videos,
// extracting transcription audio and capturing source metadata.
package download
