package model

import (
	"encoding/json"
	"time"
)

// Log level constants for job log entries.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// JobLog is an append-only diagnostic entry scoped to a job. Rows are
// write-once and never mutated.
type JobLog struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Component string          `json:"component"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
