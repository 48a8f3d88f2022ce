package core

import (
	"context"
	"fmt"
)

// StatusCount holds a count grouped by status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// TypeCount holds a count grouped by type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// JobAnalytics holds aggregate job counts and derived ratios for dashboards.
type JobAnalytics struct {
	Total              int           `json:"total"`
	ByStatus           []StatusCount `json:"by_status"`
	ByType             []TypeCount   `json:"by_type"`
	AvgDurationSeconds *float64      `json:"avg_duration_seconds,omitempty"`
	SuccessRate        *float64      `json:"success_rate,omitempty"`
}

// ScheduleAnalytics holds aggregate schedule counts and run statistics.
type ScheduleAnalytics struct {
	Total          int           `json:"total"`
	ByStatus       []StatusCount `json:"by_status"`
	ByType         []TypeCount   `json:"by_type"`
	TotalRuns      int           `json:"total_runs"`
	SuccessfulRuns int           `json:"successful_runs"`
	FailedRuns     int           `json:"failed_runs"`
	AvgRunDuration *float64      `json:"avg_run_duration_seconds,omitempty"`
}

// AnalyticsService answers read-only aggregate queries; no side effects.
type AnalyticsService struct {
	db DB
}

func NewAnalyticsService(db DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// JobAnalytics returns grouped job counts, the mean actual duration of
// completed jobs, and the completed-over-terminal success ratio.
func (s *AnalyticsService) JobAnalytics(ctx context.Context) (*JobAnalytics, error) {
	a := &JobAnalytics{}

	const summaryQuery = `
		WITH total AS (
			SELECT count(*) AS c FROM patch_jobs
		), avg_duration AS (
			SELECT avg(actual_duration) AS a FROM patch_jobs WHERE status = 'completed'
		), terminal AS (
			SELECT count(*) AS c FROM patch_jobs WHERE status IN ('completed', 'failed', 'cancelled')
		), succeeded AS (
			SELECT count(*) AS c FROM patch_jobs WHERE status = 'completed'
		)
		SELECT total.c, avg_duration.a,
		       CASE WHEN terminal.c = 0 THEN NULL
		            ELSE round(succeeded.c::numeric / terminal.c, 4) END
		FROM total, avg_duration, terminal, succeeded`

	err := s.db.QueryRow(ctx, summaryQuery).Scan(&a.Total, &a.AvgDurationSeconds, &a.SuccessRate)
	if err != nil {
		return nil, fmt.Errorf("job analytics summary: %w", err)
	}

	a.ByStatus, err = s.countGrouped(ctx, `SELECT status, count(*) FROM patch_jobs GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("job analytics by status: %w", err)
	}

	byType, err := s.countGrouped(ctx, `SELECT job_type, count(*) FROM patch_jobs GROUP BY job_type ORDER BY job_type`)
	if err != nil {
		return nil, fmt.Errorf("job analytics by type: %w", err)
	}
	for _, tc := range byType {
		a.ByType = append(a.ByType, TypeCount{Type: tc.Status, Count: tc.Count})
	}

	return a, nil
}

// ScheduleAnalytics returns grouped schedule counts and summed run
// statistics, with the average run duration weighted by successful runs.
func (s *AnalyticsService) ScheduleAnalytics(ctx context.Context) (*ScheduleAnalytics, error) {
	a := &ScheduleAnalytics{}

	const summaryQuery = `
		WITH total AS (
			SELECT count(*) AS c FROM patch_schedules
		), runs AS (
			SELECT coalesce(sum(total_runs), 0) AS t,
			       coalesce(sum(successful_runs), 0) AS s,
			       coalesce(sum(failed_runs), 0) AS f
			FROM patch_schedules
		), avg_duration AS (
			SELECT CASE WHEN sum(successful_runs) = 0 OR sum(successful_runs) IS NULL THEN NULL
			            ELSE sum(average_run_duration * successful_runs) / sum(successful_runs) END AS a
			FROM patch_schedules WHERE average_run_duration IS NOT NULL
		)
		SELECT total.c, runs.t, runs.s, runs.f, avg_duration.a
		FROM total, runs, avg_duration`

	err := s.db.QueryRow(ctx, summaryQuery).Scan(&a.Total, &a.TotalRuns, &a.SuccessfulRuns, &a.FailedRuns, &a.AvgRunDuration)
	if err != nil {
		return nil, fmt.Errorf("schedule analytics summary: %w", err)
	}

	a.ByStatus, err = s.countGrouped(ctx, `SELECT status, count(*) FROM patch_schedules GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("schedule analytics by status: %w", err)
	}

	byType, err := s.countGrouped(ctx, `SELECT schedule_type, count(*) FROM patch_schedules GROUP BY schedule_type ORDER BY schedule_type`)
	if err != nil {
		return nil, fmt.Errorf("schedule analytics by type: %w", err)
	}
	for _, tc := range byType {
		a.ByType = append(a.ByType, TypeCount{Type: tc.Status, Count: tc.Count})
	}

	return a, nil
}

func (s *AnalyticsService) countGrouped(ctx context.Context, query string) ([]StatusCount, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
