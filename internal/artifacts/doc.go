// Package artifacts centralizes the on-disk layout of per-item pipeline
// artifacts.
package artifacts
