// Package ledger persists the item registry and the append-only record of
// per-stage outcomes that makes every run resumable. The latest record for
// an (item, stage) pair is authoritative; pending and failed items are the
// only ones a stage will pick up.
package ledger
