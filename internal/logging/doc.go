// Package logging provides the shared slog construction helpers, context
// propagation for run/stage/item fields, and the console and JSON handlers.
package logging
