package taskstore

import "time"

// Status represents the lifecycle of a remote generation job. The string
// values match the remote API's status vocabulary and are compared
// case-sensitively.
type Status string

const (
	StatusSubmitted  Status = "Submitted"
	StatusQueued     Status = "Queued"
	StatusProcessing Status = "Processing"
	StatusRunning    Status = "Running"
	StatusPending    Status = "Pending"
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
	StatusError      Status = "Error"
	StatusCanceled   Status = "Canceled"
)

var nonTerminalStatuses = map[Status]struct{}{
	StatusSubmitted:  {},
	StatusQueued:     {},
	StatusProcessing: {},
	StatusRunning:    {},
	StatusPending:    {},
}

var terminalStatuses = map[Status]struct{}{
	StatusSucceeded: {},
	StatusFailed:    {},
	StatusError:     {},
	StatusCanceled:  {},
}

// ParseStatus converts a string into a known Status. Matching is exact; the
// remote API's status strings are case-sensitive.
func ParseStatus(value string) (Status, bool) {
	status := Status(value)
	if _, ok := nonTerminalStatuses[status]; ok {
		return status, true
	}
	if _, ok := terminalStatuses[status]; ok {
		return status, true
	}
	return "", false
}

// IsTerminal reports whether a status ends polling for a job.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Known reports whether the status belongs to the closed enum.
func (s Status) Known() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Record is one row of the task table: a single remote generation job.
type Record struct {
	JobID          string
	Project        string
	Target         string
	Prompt         string
	Model          string
	Status         Status
	OutputPath     string
	SourceURL      string
	CreatedAt      int64
	UpdatedAt      int64
	Error          string
	PollCount      int
	Workdir        string
	TargetDuration float64
}

// IsTerminal reports whether the record has reached a terminal status.
func (r Record) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// Touch bumps the updated timestamp and poll counter after a poll round.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now.Unix()
	r.PollCount++
}

// MarkError moves the record to the Error status with a failure message.
func (r *Record) MarkError(message string, now time.Time) {
	r.Status = StatusError
	r.Error = message
	r.UpdatedAt = now.Unix()
}

// Summary aggregates table state for diagnostic output.
type Summary struct {
	Total     int
	Active    int
	Succeeded int
	Failed    int
}
