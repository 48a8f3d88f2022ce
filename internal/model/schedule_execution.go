package model

import "time"

// ScheduleExecution is one firing instance of a schedule. Created when the
// schedule fires, updated once on completion or failure, append-only history
// otherwise.
type ScheduleExecution struct {
	ID            string     `json:"id"`
	ScheduleID    string     `json:"schedule_id"`
	ExecutionTime time.Time  `json:"execution_time"`
	Status        string     `json:"status"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Duration      *int       `json:"duration_seconds,omitempty"`
	JobIDs        []string   `json:"job_ids"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
