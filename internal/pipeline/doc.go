// Package pipeline drives the staged video-to-dataset workflow: link
// ingestion, ordered stage execution over the ledger, and run serialization
// through a file lock.
package pipeline
