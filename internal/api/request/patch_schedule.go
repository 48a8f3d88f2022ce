package request

import (
	"encoding/json"
	"time"
)

type CreateSchedule struct {
	Name              string          `json:"name" validate:"required,max=255"`
	Description       *string         `json:"description" validate:"omitempty,max=4096"`
	ScheduleType      string          `json:"schedule_type" validate:"required,oneof=recurring one_time"`
	StartDate         *time.Time      `json:"start_date"`
	EndDate           *time.Time      `json:"end_date"`
	CronExpression    *string         `json:"cron_expression" validate:"omitempty,max=128"`
	Timezone          string          `json:"timezone" validate:"omitempty,max=64"`
	IntervalMinutes   *int            `json:"interval_minutes" validate:"omitempty,min=1"`
	PatchCriteria     json.RawMessage `json:"patch_criteria"`
	AssetCriteria     json.RawMessage `json:"asset_criteria"`
	MaxConcurrentJobs int             `json:"max_concurrent_jobs" validate:"omitempty,min=1,max=100"`
	ErrorPolicy       string          `json:"error_policy" validate:"omitempty,oneof=continue stop"`
	MaintenanceWindow *string         `json:"maintenance_window" validate:"omitempty,max=128"`
	RollbackOnFailure bool            `json:"rollback_on_failure"`
	IsTemplate        bool            `json:"is_template"`
}

type UpdateSchedule struct {
	Name              *string         `json:"name" validate:"omitempty,max=255"`
	Description       *string         `json:"description" validate:"omitempty,max=4096"`
	ScheduleType      *string         `json:"schedule_type" validate:"omitempty,oneof=recurring one_time"`
	StartDate         *time.Time      `json:"start_date"`
	EndDate           *time.Time      `json:"end_date"`
	CronExpression    *string         `json:"cron_expression" validate:"omitempty,max=128"`
	Timezone          *string         `json:"timezone" validate:"omitempty,max=64"`
	IntervalMinutes   *int            `json:"interval_minutes" validate:"omitempty,min=1"`
	PatchCriteria     json.RawMessage `json:"patch_criteria"`
	AssetCriteria     json.RawMessage `json:"asset_criteria"`
	MaxConcurrentJobs *int            `json:"max_concurrent_jobs" validate:"omitempty,min=1,max=100"`
	ErrorPolicy       *string         `json:"error_policy" validate:"omitempty,oneof=continue stop"`
	MaintenanceWindow *string         `json:"maintenance_window" validate:"omitempty,max=128"`
	RollbackOnFailure *bool           `json:"rollback_on_failure"`
	IsTemplate        *bool           `json:"is_template"`
}

type CreateScheduleCondition struct {
	ConditionType string `json:"condition_type" validate:"required,max=64"`
	Operator      string `json:"operator" validate:"required,max=32"`
	Value         string `json:"value" validate:"required,max=1024"`
	Required      bool   `json:"required"`
}

type CreateScheduleExclusion struct {
	ExclusionType string     `json:"exclusion_type" validate:"required,oneof=date_window asset"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	AssetID       *string    `json:"asset_id"`
	Reason        *string    `json:"reason" validate:"omitempty,max=1024"`
}
