// Package services defines the shared error taxonomy for external
// collaborators (the remote generation API, ffmpeg, ffprobe).
//
// Failures are tagged with sentinel markers so callers classify them with
// errors.Is instead of matching message substrings. Retry decisions in the
// submit path and terminal-status mapping in the polling worker are both
// structural switches over these markers.
package services
