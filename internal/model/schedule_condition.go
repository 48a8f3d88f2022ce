package model

import "time"

// ScheduleCondition is a pre-condition record scoped to a schedule. Consulted
// by operators before a schedule fires; plain lookup data, no rule engine.
type ScheduleCondition struct {
	ID            string    `json:"id"`
	ScheduleID    string    `json:"schedule_id"`
	ConditionType string    `json:"condition_type"`
	Operator      string    `json:"operator"`
	Value         string    `json:"value"`
	Required      bool      `json:"required"`
	CreatedAt     time.Time `json:"created_at"`
}

// ScheduleExclusion records a window or asset excluded from a schedule.
type ScheduleExclusion struct {
	ID            string     `json:"id"`
	ScheduleID    string     `json:"schedule_id"`
	ExclusionType string     `json:"exclusion_type"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	AssetID       *string    `json:"asset_id,omitempty"`
	Reason        *string    `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
