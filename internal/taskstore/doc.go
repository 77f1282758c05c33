// Package taskstore persists remote generation jobs in a flat CSV table and
// exposes helpers for driving their lifecycle.
//
// The table is deliberately human-readable: one row per job, rewritten in full
// through a temp-file-plus-rename on every upsert so a crash mid-write never
// corrupts it, and safe to inspect or hand-edit between runs. Rows that fail
// to parse are skipped on load rather than rewritten. An advisory file lock
// keeps a second process from opening the same table for writing.
//
// Records move strictly forward: non-terminal to non-terminal, or non-terminal
// to terminal. The store rejects any transition out of a terminal status.
// Records are never deleted; the table doubles as the audit log that prevents
// resubmission of already-completed jobs.
package taskstore
