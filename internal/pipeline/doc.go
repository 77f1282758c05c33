// Package pipeline drives a project script end to end: each line is handed
// to a generator that submits a remote job, the background worker drains
// the task store, and the assembly stage normalizes, concatenates, and
// subtitles the resulting clips into one final video. Per-line failures
// never abort the batch; they land in the run manifest.
package pipeline
