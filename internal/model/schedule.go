package model

import (
	"encoding/json"
	"time"
)

// Schedule is a recurring or one-time trigger that generates patch jobs when
// due. Run statistics and next_run_time are mutated only by the
// execution-completion path.
type Schedule struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        *string         `json:"description,omitempty"`
	ScheduleType       string          `json:"schedule_type"`
	Status             string          `json:"status"`
	StartDate          *time.Time      `json:"start_date,omitempty"`
	EndDate            *time.Time      `json:"end_date,omitempty"`
	NextRunTime        *time.Time      `json:"next_run_time,omitempty"`
	LastRunTime        *time.Time      `json:"last_run_time,omitempty"`
	CronExpression     *string         `json:"cron_expression,omitempty"`
	Timezone           string          `json:"timezone"`
	IntervalMinutes    *int            `json:"interval_minutes,omitempty"`
	PatchCriteria      json.RawMessage `json:"patch_criteria,omitempty"`
	AssetCriteria      json.RawMessage `json:"asset_criteria,omitempty"`
	MaxConcurrentJobs  int             `json:"max_concurrent_jobs"`
	ErrorPolicy        string          `json:"error_policy"`
	MaintenanceWindow  *string         `json:"maintenance_window,omitempty"`
	RollbackOnFailure  bool            `json:"rollback_on_failure"`
	TotalRuns          int             `json:"total_runs"`
	SuccessfulRuns     int             `json:"successful_runs"`
	FailedRuns         int             `json:"failed_runs"`
	AverageRunDuration *float64        `json:"average_run_duration_seconds,omitempty"`
	IsTemplate         bool            `json:"is_template"`
	CreatedBy          *string         `json:"created_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PatchCriteria is the decoded form of Schedule.PatchCriteria.
type PatchCriteria struct {
	PatchIDs   []string `json:"patch_ids,omitempty"`
	Severities []string `json:"severities,omitempty"`
	Products   []string `json:"products,omitempty"`
}

// AssetCriteria is the decoded form of Schedule.AssetCriteria.
type AssetCriteria struct {
	AssetIDs []string `json:"asset_ids,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}
