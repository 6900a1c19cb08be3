// Package report builds the dataset summary projection and the aggregate
// JSONL files that downstream consumers read.
package report
