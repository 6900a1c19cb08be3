// Package csvlog provides append-only CSV run logs.
package csvlog
