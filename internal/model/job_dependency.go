package model

import "time"

// JobDependency is a directed "job depends-on job" edge consulted before a
// job may start.
type JobDependency struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	DependsOnJobID string    `json:"depends_on_job_id"`
	DependencyType string    `json:"dependency_type"`
	Optional       bool      `json:"optional"`
	FailureAction  string    `json:"failure_action"`
	CreatedAt      time.Time `json:"created_at"`
}

// JobDependencyStatus is a dependency edge joined with the referenced job's
// current status for inspection.
type JobDependencyStatus struct {
	JobDependency
	DependsOnJobName   string `json:"depends_on_job_name"`
	DependsOnJobStatus string `json:"depends_on_job_status"`
}
