package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cypher-grc/cypher/internal/cron"
	"github.com/cypher-grc/cypher/internal/metrics"
	"github.com/cypher-grc/cypher/internal/model"
	"github.com/cypher-grc/cypher/internal/platform"
)

const scheduleColumns = `id, name, description, schedule_type, status, start_date, end_date,
	next_run_time, last_run_time, cron_expression, timezone, interval_minutes,
	patch_criteria, asset_criteria, max_concurrent_jobs, error_policy, maintenance_window,
	rollback_on_failure, total_runs, successful_runs, failed_runs, average_run_duration,
	is_template, created_by, created_at, updated_at`

func scanSchedule(row pgx.Row) (*model.Schedule, error) {
	var sc model.Schedule
	err := row.Scan(&sc.ID, &sc.Name, &sc.Description, &sc.ScheduleType, &sc.Status, &sc.StartDate,
		&sc.EndDate, &sc.NextRunTime, &sc.LastRunTime, &sc.CronExpression, &sc.Timezone,
		&sc.IntervalMinutes, &sc.PatchCriteria, &sc.AssetCriteria, &sc.MaxConcurrentJobs,
		&sc.ErrorPolicy, &sc.MaintenanceWindow, &sc.RollbackOnFailure, &sc.TotalRuns,
		&sc.SuccessfulRuns, &sc.FailedRuns, &sc.AverageRunDuration, &sc.IsTemplate,
		&sc.CreatedBy, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ScheduleService owns schedule CRUD, due-schedule discovery, firing, and
// post-run statistics.
type ScheduleService struct {
	db      DB
	jobs    *JobService
	targets *JobTargetService
}

func NewScheduleService(db DB, jobs *JobService, targets *JobTargetService) *ScheduleService {
	return &ScheduleService{db: db, jobs: jobs, targets: targets}
}

// Create validates any supplied cron expression and computes the initial
// next_run_time before inserting.
func (s *ScheduleService) Create(ctx context.Context, sched *model.Schedule) error {
	next, err := computeNextRun(sched, time.Now())
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	sched.NextRunTime = next

	_, err = s.db.Exec(ctx,
		`INSERT INTO patch_schedules (id, name, description, schedule_type, status, start_date, end_date,
		 next_run_time, cron_expression, timezone, interval_minutes, patch_criteria, asset_criteria,
		 max_concurrent_jobs, error_policy, maintenance_window, rollback_on_failure, is_template,
		 created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		sched.ID, sched.Name, sched.Description, sched.ScheduleType, sched.Status, sched.StartDate,
		sched.EndDate, sched.NextRunTime, sched.CronExpression, sched.Timezone, sched.IntervalMinutes,
		sched.PatchCriteria, sched.AssetCriteria, sched.MaxConcurrentJobs, sched.ErrorPolicy,
		sched.MaintenanceWindow, sched.RollbackOnFailure, sched.IsTemplate, sched.CreatedBy,
		sched.CreatedAt, sched.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

func (s *ScheduleService) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	sched, err := scanSchedule(s.db.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM patch_schedules WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get schedule %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get schedule %s: %w", id, err)
	}
	return sched, nil
}

// ScheduleFilter narrows List results. Empty fields are ignored.
type ScheduleFilter struct {
	Status       string
	ScheduleType string
}

func (s *ScheduleService) List(ctx context.Context, filter ScheduleFilter, limit int, cursor string) ([]model.Schedule, bool, error) {
	query := `SELECT ` + scheduleColumns + ` FROM patch_schedules WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.ScheduleType != "" {
		query += fmt.Sprintf(` AND schedule_type = $%d`, argIdx)
		args = append(args, filter.ScheduleType)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY id LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sc)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate schedules: %w", err)
	}

	hasMore := len(schedules) > limit
	if hasMore {
		schedules = schedules[:limit]
	}
	return schedules, hasMore, nil
}

// Update rewrites schedule definition fields and recomputes next_run_time
// from the new recurrence spec.
func (s *ScheduleService) Update(ctx context.Context, sched *model.Schedule) error {
	next, err := computeNextRun(sched, time.Now())
	if err != nil {
		return fmt.Errorf("update schedule %s: %w", sched.ID, err)
	}
	sched.NextRunTime = next

	tag, err := s.db.Exec(ctx,
		`UPDATE patch_schedules SET name = $1, description = $2, schedule_type = $3, start_date = $4,
		 end_date = $5, next_run_time = $6, cron_expression = $7, timezone = $8, interval_minutes = $9,
		 patch_criteria = $10, asset_criteria = $11, max_concurrent_jobs = $12, error_policy = $13,
		 maintenance_window = $14, rollback_on_failure = $15, is_template = $16, updated_at = now()
		 WHERE id = $17`,
		sched.Name, sched.Description, sched.ScheduleType, sched.StartDate, sched.EndDate,
		sched.NextRunTime, sched.CronExpression, sched.Timezone, sched.IntervalMinutes,
		sched.PatchCriteria, sched.AssetCriteria, sched.MaxConcurrentJobs, sched.ErrorPolicy,
		sched.MaintenanceWindow, sched.RollbackOnFailure, sched.IsTemplate, sched.ID,
	)
	if err != nil {
		return fmt.Errorf("update schedule %s: %w", sched.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update schedule %s: %w", sched.ID, ErrNotFound)
	}
	return nil
}

func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM patch_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete schedule %s: %w", id, ErrNotFound)
	}
	return nil
}

// Activate, Pause, and Disable are unconditional status writes; the schedule
// status field carries no transition guard.

func (s *ScheduleService) Activate(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.ScheduleStatusActive)
}

func (s *ScheduleService) Pause(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.ScheduleStatusPaused)
}

func (s *ScheduleService) Disable(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, model.ScheduleStatusDisabled)
}

func (s *ScheduleService) setStatus(ctx context.Context, id, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE patch_schedules SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("set schedule %s status to %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set schedule %s status: %w", id, ErrNotFound)
	}
	return nil
}

// GetDue returns active, non-template schedules whose next run time has
// passed and whose end date has not.
func (s *ScheduleService) GetDue(ctx context.Context) ([]model.Schedule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+scheduleColumns+` FROM patch_schedules
		 WHERE status = $1 AND is_template = false
		   AND next_run_time IS NOT NULL AND next_run_time <= now()
		   AND (end_date IS NULL OR end_date > now())
		 ORDER BY next_run_time`, model.ScheduleStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("get due schedules: %w", err)
	}
	defer rows.Close()

	var due []model.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due schedule: %w", err)
		}
		due = append(due, *sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due schedules: %w", err)
	}
	return due, nil
}

// ExecuteNow fires a schedule: records a ScheduleExecution, generates one job
// per matching patch with targets fanned out from the asset criteria, marks
// the execution completed or failed, and updates run statistics.
func (s *ScheduleService) ExecuteNow(ctx context.Context, scheduleID, actor string) (*model.ScheduleExecution, error) {
	sched, err := s.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	exec := &model.ScheduleExecution{
		ID:            platform.NewID(),
		ScheduleID:    scheduleID,
		ExecutionTime: started,
		Status:        model.ExecutionStatusRunning,
		StartTime:     &started,
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO schedule_executions (id, schedule_id, execution_time, status, start_time, job_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		exec.ID, exec.ScheduleID, exec.ExecutionTime, exec.Status, exec.StartTime, []string{},
	)
	if err != nil {
		return nil, fmt.Errorf("record schedule execution: %w", err)
	}

	jobIDs, genErr := s.generateJobs(ctx, sched, actor)
	duration := int(time.Since(started).Seconds())
	ended := time.Now()
	exec.EndTime = &ended
	exec.Duration = &duration
	exec.JobIDs = jobIDs

	if genErr != nil {
		msg := genErr.Error()
		exec.Status = model.ExecutionStatusFailed
		exec.ErrorMessage = &msg
		_, err = s.db.Exec(ctx,
			`UPDATE schedule_executions SET status = $1, end_time = $2, duration = $3, error_message = $4
			 WHERE id = $5`,
			exec.Status, exec.EndTime, exec.Duration, msg, exec.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("finalize schedule execution %s: %w", exec.ID, err)
		}
		if err := s.UpdateStats(ctx, scheduleID, false, duration); err != nil {
			return nil, err
		}
		metrics.ScheduleRunsTotal.WithLabelValues("failed").Inc()
		return exec, fmt.Errorf("execute schedule %s: %w", scheduleID, genErr)
	}

	exec.Status = model.ExecutionStatusCompleted
	_, err = s.db.Exec(ctx,
		`UPDATE schedule_executions SET status = $1, end_time = $2, duration = $3, job_ids = $4
		 WHERE id = $5`,
		exec.Status, exec.EndTime, exec.Duration, jobIDs, exec.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("finalize schedule execution %s: %w", exec.ID, err)
	}
	if err := s.UpdateStats(ctx, scheduleID, true, duration); err != nil {
		return nil, err
	}
	metrics.ScheduleRunsTotal.WithLabelValues("completed").Inc()
	return exec, nil
}

// generateJobs resolves the schedule's patch and asset criteria and creates
// one queued job per matching patch, all sharing a batch id. A schedule whose
// criteria match nothing fires successfully with zero jobs.
func (s *ScheduleService) generateJobs(ctx context.Context, sched *model.Schedule, actor string) ([]string, error) {
	patchIDs, err := s.resolvePatches(ctx, sched.PatchCriteria)
	if err != nil {
		return nil, err
	}
	assetIDs, err := s.resolveAssets(ctx, sched.AssetCriteria)
	if err != nil {
		return nil, err
	}
	if len(patchIDs) == 0 || len(assetIDs) == 0 {
		return []string{}, nil
	}

	batchID := platform.NewBatchID("batch_")
	now := time.Now()
	jobIDs := make([]string, 0, len(patchIDs))
	for _, patchID := range patchIDs {
		job := &model.Job{
			ID:            platform.NewID(),
			Name:          fmt.Sprintf("%s: patch %s", sched.Name, patchID),
			PatchID:       patchID,
			JobType:       model.JobTypeInstall,
			Status:        model.JobStatusQueued,
			Priority:      model.SeverityMedium,
			ExecutionMode: "parallel",
			BatchID:       &batchID,
			CreatedBy:     &actor,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return nil, err
		}
		if _, err := s.targets.CreateTargets(ctx, job.ID, assetIDs, 3); err != nil {
			return nil, err
		}
		jobIDs = append(jobIDs, job.ID)
		metrics.JobsGeneratedTotal.Inc()
	}
	return jobIDs, nil
}

func (s *ScheduleService) resolvePatches(ctx context.Context, criteria json.RawMessage) ([]string, error) {
	if len(criteria) == 0 {
		return nil, nil
	}
	var pc model.PatchCriteria
	if err := json.Unmarshal(criteria, &pc); err != nil {
		return nil, fmt.Errorf("decode patch criteria: %w", err)
	}

	query := `SELECT id FROM patches WHERE 1=1`
	var args []any
	argIdx := 1
	if len(pc.PatchIDs) > 0 {
		query += fmt.Sprintf(` AND id = ANY($%d)`, argIdx)
		args = append(args, pc.PatchIDs)
		argIdx++
	}
	if len(pc.Severities) > 0 {
		query += fmt.Sprintf(` AND severity = ANY($%d)`, argIdx)
		args = append(args, pc.Severities)
		argIdx++
	}
	if len(pc.Products) > 0 {
		query += fmt.Sprintf(` AND product = ANY($%d)`, argIdx)
		args = append(args, pc.Products)
	}
	if len(args) == 0 {
		return nil, nil
	}

	return scanIDs(ctx, s.db, query, args, "resolve patches")
}

func (s *ScheduleService) resolveAssets(ctx context.Context, criteria json.RawMessage) ([]string, error) {
	if len(criteria) == 0 {
		return nil, nil
	}
	var ac model.AssetCriteria
	if err := json.Unmarshal(criteria, &ac); err != nil {
		return nil, fmt.Errorf("decode asset criteria: %w", err)
	}

	query := `SELECT id FROM assets WHERE 1=1`
	var args []any
	argIdx := 1
	if len(ac.AssetIDs) > 0 {
		query += fmt.Sprintf(` AND id = ANY($%d)`, argIdx)
		args = append(args, ac.AssetIDs)
		argIdx++
	}
	if len(ac.Groups) > 0 {
		query += fmt.Sprintf(` AND asset_group = ANY($%d)`, argIdx)
		args = append(args, ac.Groups)
	}
	if len(args) == 0 {
		return nil, nil
	}

	return scanIDs(ctx, s.db, query, args, "resolve assets")
}

func scanIDs(ctx context.Context, db DB, query string, args []any, op string) ([]string, error) {
	rows, err := db.Query(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// UpdateStats records a run outcome: counters move, the average duration is
// recomputed as the weighted mean over successful runs only, last_run_time is
// stamped, and next_run_time is recomputed. One-time schedules get a null
// next_run_time after firing once.
func (s *ScheduleService) UpdateStats(ctx context.Context, scheduleID string, success bool, durationSeconds int) error {
	sched, err := s.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}

	sched.TotalRuns++
	if success {
		prev := 0.0
		if sched.AverageRunDuration != nil {
			prev = *sched.AverageRunDuration
		}
		avg := (prev*float64(sched.SuccessfulRuns) + float64(durationSeconds)) / float64(sched.SuccessfulRuns+1)
		sched.SuccessfulRuns++
		sched.AverageRunDuration = &avg
	} else {
		sched.FailedRuns++
	}

	var next *time.Time
	if sched.ScheduleType == model.ScheduleTypeRecurring {
		next, err = computeNextRun(sched, time.Now())
		if err != nil {
			return fmt.Errorf("recompute next run for schedule %s: %w", scheduleID, err)
		}
	}

	_, err = s.db.Exec(ctx,
		`UPDATE patch_schedules SET total_runs = $1, successful_runs = $2, failed_runs = $3,
		 average_run_duration = $4, last_run_time = now(), next_run_time = $5, updated_at = now()
		 WHERE id = $6`,
		sched.TotalRuns, sched.SuccessfulRuns, sched.FailedRuns, sched.AverageRunDuration,
		next, scheduleID,
	)
	if err != nil {
		return fmt.Errorf("update stats for schedule %s: %w", scheduleID, err)
	}
	return nil
}

// ListExecutions returns a schedule's firing history, newest first.
func (s *ScheduleService) ListExecutions(ctx context.Context, scheduleID string, limit int) ([]model.ScheduleExecution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, schedule_id, execution_time, status, start_time, end_time, duration, job_ids, error_message, created_at
		 FROM schedule_executions WHERE schedule_id = $1
		 ORDER BY execution_time DESC LIMIT $2`, scheduleID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list executions for schedule %s: %w", scheduleID, err)
	}
	defer rows.Close()

	var executions []model.ScheduleExecution
	for rows.Next() {
		var e model.ScheduleExecution
		if err := rows.Scan(&e.ID, &e.ScheduleID, &e.ExecutionTime, &e.Status, &e.StartTime,
			&e.EndTime, &e.Duration, &e.JobIDs, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule execution: %w", err)
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule executions: %w", err)
	}
	return executions, nil
}

// computeNextRun derives next_run_time from the recurrence spec. One-time
// schedules run at their start date; recurring schedules use the cron
// expression when present, else the minute interval.
func computeNextRun(sched *model.Schedule, now time.Time) (*time.Time, error) {
	switch sched.ScheduleType {
	case model.ScheduleTypeOneTime:
		return sched.StartDate, nil
	case model.ScheduleTypeRecurring:
		if sched.CronExpression != nil && *sched.CronExpression != "" {
			next, err := cron.Next(*sched.CronExpression, sched.Timezone, now)
			if err != nil {
				return nil, err
			}
			return &next, nil
		}
		if sched.IntervalMinutes != nil && *sched.IntervalMinutes > 0 {
			next := now.Add(time.Duration(*sched.IntervalMinutes) * time.Minute)
			return &next, nil
		}
		return nil, fmt.Errorf("recurring schedule requires a cron expression or interval")
	default:
		return nil, fmt.Errorf("unknown schedule type %q", sched.ScheduleType)
	}
}
