// Package registry turns the operator-maintained links file into registered
// pipeline items, expanding playlists and deduplicating by video identifier.
package registry
