package request

import "time"

type CreateJob struct {
	Name               string     `json:"name" validate:"required,max=255"`
	Description        *string    `json:"description" validate:"omitempty,max=4096"`
	PatchID            string     `json:"patch_id" validate:"required"`
	JobType            string     `json:"job_type" validate:"required,oneof=install rollback verify"`
	Priority           string     `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ExecutionMode      string     `json:"execution_mode" validate:"omitempty,oneof=parallel sequential"`
	ScheduledStartTime *time.Time `json:"scheduled_start_time"`
	EstimatedDuration  *int       `json:"estimated_duration_seconds" validate:"omitempty,min=1"`
	ParentJobID        *string    `json:"parent_job_id"`
	BatchID            *string    `json:"batch_id"`
	RequiresApproval   bool       `json:"requires_approval"`
}

type UpdateJob struct {
	Name               *string    `json:"name" validate:"omitempty,max=255"`
	Description        *string    `json:"description" validate:"omitempty,max=4096"`
	Priority           *string    `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	ExecutionMode      *string    `json:"execution_mode" validate:"omitempty,oneof=parallel sequential"`
	ScheduledStartTime *time.Time `json:"scheduled_start_time"`
	EstimatedDuration  *int       `json:"estimated_duration_seconds" validate:"omitempty,min=1"`
	RequiresApproval   *bool      `json:"requires_approval"`
}

type CancelJob struct {
	Reason string `json:"reason" validate:"required,max=1024"`
}

type CompleteJob struct {
	Summary string `json:"summary" validate:"omitempty,max=4096"`
}

type FailJob struct {
	Message  string `json:"message" validate:"required,max=4096"`
	ExitCode int    `json:"exit_code"`
}

type CreateJobTargets struct {
	AssetIDs   []string `json:"asset_ids" validate:"required,min=1,dive,required"`
	MaxRetries int      `json:"max_retries" validate:"omitempty,min=0,max=10"`
}

type UpdateJobTarget struct {
	Status               *string `json:"status" validate:"omitempty,oneof=queued running completed failed skipped"`
	ExitCode             *int    `json:"exit_code"`
	Stdout               *string `json:"stdout"`
	Stderr               *string `json:"stderr"`
	ErrorMessage         *string `json:"error_message" validate:"omitempty,max=4096"`
	PreCheckPassed       *bool   `json:"pre_check_passed"`
	PostValidationPassed *bool   `json:"post_validation_passed"`
	RetryCount           *int    `json:"retry_count" validate:"omitempty,min=0"`
	ExecutorID           *string `json:"executor_id"`
}

type CreateJobDependency struct {
	DependsOnJobID string `json:"depends_on_job_id" validate:"required"`
	DependencyType string `json:"dependency_type" validate:"omitempty,max=64"`
	Optional       bool   `json:"optional"`
	FailureAction  string `json:"failure_action" validate:"omitempty,oneof=block skip warn"`
}

type AppendJobLog struct {
	Level     string          `json:"level" validate:"required,oneof=debug info warn error"`
	Message   string          `json:"message" validate:"required,max=8192"`
	Component string          `json:"component" validate:"omitempty,max=128"`
	Metadata  map[string]any  `json:"metadata"`
}
