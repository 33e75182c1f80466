package models

import "time"

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether a job in this status can never change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return Status(raw), true
	default:
		return "", false
	}
}

// Result is set exactly once when a job reaches a terminal state. Either
// Output or Error is populated, never both.
type Result struct {
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Job struct {
	ID          string
	Status      Status
	Language    Language
	Code        string
	Scenario    Scenario
	Logs        []string
	Result      *Result
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Summary is the listing projection of a job. It deliberately carries no
// code or result body.
type Summary struct {
	ID          string
	Status      Status
	CreatedAt   time.Time
	CompletedAt *time.Time
}
