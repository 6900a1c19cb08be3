// Package ffmpeg wraps ffmpeg and ffprobe for audio extraction and
// duration probing.
package ffmpeg
