// Package remote implements the client for the asynchronous video generation
// API: job submission, status queries, and artifact download.
//
// Submission retries transient failures with exponential backoff and jitter,
// then fails soft so the caller can record the line as failed without
// aborting the batch. Status queries are single-attempt and never return an
// error: every transport, HTTP, and decode failure is normalized into a
// response that looks terminal, which keeps the polling worker's state
// machine free of transport special cases.
package remote
