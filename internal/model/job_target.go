package model

import "time"

// JobTarget is one asset's execution record within a job. Targets are created
// in bulk when the job's target set is resolved and updated independently as
// execution proceeds.
type JobTarget struct {
	ID                   string     `json:"id"`
	JobID                string     `json:"job_id"`
	AssetID              string     `json:"asset_id"`
	Status               string     `json:"status"`
	StartTime            *time.Time `json:"start_time,omitempty"`
	EndTime              *time.Time `json:"end_time,omitempty"`
	Duration             *int       `json:"duration_seconds,omitempty"`
	ExitCode             *int       `json:"exit_code,omitempty"`
	Stdout               *string    `json:"stdout,omitempty"`
	Stderr               *string    `json:"stderr,omitempty"`
	ErrorMessage         *string    `json:"error_message,omitempty"`
	PreCheckPassed       *bool      `json:"pre_check_passed,omitempty"`
	PostValidationPassed *bool      `json:"post_validation_passed,omitempty"`
	RetryCount           int        `json:"retry_count"`
	MaxRetries           int        `json:"max_retries"`
	ExecutorID           *string    `json:"executor_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
