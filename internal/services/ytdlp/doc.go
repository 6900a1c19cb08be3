// Package ytdlp wraps the yt-dlp binary for playlist expansion, metadata
// probing, and video retrieval.
package ytdlp
