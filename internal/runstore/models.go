package runstore

import "time"

// Run statuses recorded in history.
const (
	RunStatusCompleted = "completed"
	RunStatusTimeout   = "timeout"
	RunStatusFailed    = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	SourcePath string
	Artifact   string
	Status     string

	Submitted     int64
	Forwarded     int64
	Fallbacks     int64
	Failed        int64
	Dropped       int64
	Flushed       int64
	Flushes       int64
	WriteFailures int64

	ErrorMessage string
}

// Duration returns the wall-clock span of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Diagnostic is one non-fatal anomaly recorded during a run, such as a
// rejected source row or a dropped item.
type Diagnostic struct {
	ID        int64
	RunID     string
	CreatedAt time.Time
	Stage     string
	Message   string
}
