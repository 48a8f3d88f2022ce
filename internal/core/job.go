package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cypher-grc/cypher/internal/metrics"
	"github.com/cypher-grc/cypher/internal/model"
)

const jobColumns = `id, name, description, patch_id, job_type, status, priority, execution_mode,
	scheduled_start_time, actual_start_time, completed_time, estimated_duration, actual_duration,
	total_targets, completed_targets, successful_targets, failed_targets, skipped_targets,
	progress_percentage, exit_code, error_message, parent_job_id, batch_id,
	requires_approval, approved_by, approved_at, created_by, updated_by, created_at, updated_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	err := row.Scan(&j.ID, &j.Name, &j.Description, &j.PatchID, &j.JobType, &j.Status, &j.Priority,
		&j.ExecutionMode, &j.ScheduledStartTime, &j.ActualStartTime, &j.CompletedTime,
		&j.EstimatedDuration, &j.ActualDuration, &j.TotalTargets, &j.CompletedTargets,
		&j.SuccessfulTargets, &j.FailedTargets, &j.SkippedTargets, &j.ProgressPercentage,
		&j.ExitCode, &j.ErrorMessage, &j.ParentJobID, &j.BatchID, &j.RequiresApproval,
		&j.ApprovedBy, &j.ApprovedAt, &j.CreatedBy, &j.UpdatedBy, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// JobService owns job identity, CRUD, and lifecycle transitions.
type JobService struct {
	db DB
}

func NewJobService(db DB) *JobService {
	return &JobService{db: db}
}

// Create inserts a job in its initial queued state. Patch and asset existence
// is not validated here; the caller is trusted.
func (s *JobService) Create(ctx context.Context, job *model.Job) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO patch_jobs (id, name, description, patch_id, job_type, status, priority, execution_mode,
		 scheduled_start_time, estimated_duration, parent_job_id, batch_id, requires_approval,
		 created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		job.ID, job.Name, job.Description, job.PatchID, job.JobType, job.Status, job.Priority,
		job.ExecutionMode, job.ScheduledStartTime, job.EstimatedDuration, job.ParentJobID,
		job.BatchID, job.RequiresApproval, job.CreatedBy, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	j, err := scanJob(s.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM patch_jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

// JobFilter narrows List results. Empty fields are ignored.
type JobFilter struct {
	Status   string
	JobType  string
	Priority string
	BatchID  string
}

func (s *JobService) List(ctx context.Context, filter JobFilter, limit int, cursor string) ([]model.Job, bool, error) {
	query := `SELECT ` + jobColumns + ` FROM patch_jobs WHERE 1=1`
	var args []any
	argIdx := 1

	addFilter := func(column, value string) {
		if value != "" {
			query += fmt.Sprintf(` AND %s = $%d`, column, argIdx)
			args = append(args, value)
			argIdx++
		}
	}
	addFilter("status", filter.Status)
	addFilter("job_type", filter.JobType)
	addFilter("priority", filter.Priority)
	addFilter("batch_id", filter.BatchID)

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY id LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate jobs: %w", err)
	}

	hasMore := len(jobs) > limit
	if hasMore {
		jobs = jobs[:limit]
	}
	return jobs, hasMore, nil
}

// Update applies unguarded field updates to a job.
func (s *JobService) Update(ctx context.Context, job *model.Job, actor string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE patch_jobs SET name = $1, description = $2, priority = $3, execution_mode = $4,
		 scheduled_start_time = $5, estimated_duration = $6, requires_approval = $7,
		 updated_by = $8, updated_at = now()
		 WHERE id = $9`,
		job.Name, job.Description, job.Priority, job.ExecutionMode,
		job.ScheduledStartTime, job.EstimatedDuration, job.RequiresApproval,
		actor, job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, ErrNotFound)
	}
	return nil
}

// Delete hard-deletes a job and its owned targets and logs.
func (s *JobService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM patch_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete job %s: %w", id, ErrNotFound)
	}
	return nil
}

// Start moves a queued job to running. Non-optional dependencies must have
// completed; the check happens inside this call, not in the caller.
func (s *JobService) Start(ctx context.Context, id, actor string) (*model.Job, error) {
	ok, reason, err := evalDependencies(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("start job %s: %w", id, err)
	}
	if !ok {
		return nil, &DependencyNotMetError{JobID: id, Reason: reason}
	}

	job, err := scanJob(s.db.QueryRow(ctx,
		`UPDATE patch_jobs SET status = $1, actual_start_time = now(), updated_by = $2, updated_at = now()
		 WHERE id = $3 AND status = $4
		 RETURNING `+jobColumns,
		model.JobStatusRunning, actor, id, model.JobStatusQueued))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionError(ctx, id, model.JobStatusRunning)
		}
		return nil, fmt.Errorf("start job %s: %w", id, err)
	}

	if err := insertJobLog(ctx, s.db, id, model.LogLevelInfo, fmt.Sprintf("job started by %s", actor), "job-registry"); err != nil {
		return nil, err
	}
	metrics.JobTransitionsTotal.WithLabelValues(model.JobStatusRunning).Inc()
	return job, nil
}

// Pause moves a running job to paused.
func (s *JobService) Pause(ctx context.Context, id, actor string) (*model.Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx,
		`UPDATE patch_jobs SET status = $1, updated_by = $2, updated_at = now()
		 WHERE id = $3 AND status = $4
		 RETURNING `+jobColumns,
		model.JobStatusPaused, actor, id, model.JobStatusRunning))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionError(ctx, id, model.JobStatusPaused)
		}
		return nil, fmt.Errorf("pause job %s: %w", id, err)
	}

	if err := insertJobLog(ctx, s.db, id, model.LogLevelInfo, fmt.Sprintf("job paused by %s", actor), "job-registry"); err != nil {
		return nil, err
	}
	metrics.JobTransitionsTotal.WithLabelValues(model.JobStatusPaused).Inc()
	return job, nil
}

// Resume moves a paused job back to running.
func (s *JobService) Resume(ctx context.Context, id, actor string) (*model.Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx,
		`UPDATE patch_jobs SET status = $1, updated_by = $2, updated_at = now()
		 WHERE id = $3 AND status = $4
		 RETURNING `+jobColumns,
		model.JobStatusRunning, actor, id, model.JobStatusPaused))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionError(ctx, id, model.JobStatusRunning)
		}
		return nil, fmt.Errorf("resume job %s: %w", id, err)
	}

	if err := insertJobLog(ctx, s.db, id, model.LogLevelInfo, fmt.Sprintf("job resumed by %s", actor), "job-registry"); err != nil {
		return nil, err
	}
	metrics.JobTransitionsTotal.WithLabelValues(model.JobStatusRunning).Inc()
	return job, nil
}

// Cancel moves a queued, running, or paused job to cancelled, recording the
// reason as the job's error message. Cancellation is bookkeeping only; there
// is no external process to stop.
func (s *JobService) Cancel(ctx context.Context, id, actor, reason string) (*model.Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx,
		`UPDATE patch_jobs SET status = $1, completed_time = now(), error_message = $2,
		 updated_by = $3, updated_at = now()
		 WHERE id = $4 AND status IN ($5, $6, $7)
		 RETURNING `+jobColumns,
		model.JobStatusCancelled, reason, actor, id,
		model.JobStatusQueued, model.JobStatusRunning, model.JobStatusPaused))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionError(ctx, id, model.JobStatusCancelled)
		}
		return nil, fmt.Errorf("cancel job %s: %w", id, err)
	}

	if err := insertJobLog(ctx, s.db, id, model.LogLevelError, fmt.Sprintf("job cancelled by %s: %s", actor, reason), "job-registry"); err != nil {
		return nil, err
	}
	metrics.JobTransitionsTotal.WithLabelValues(model.JobStatusCancelled).Inc()
	return job, nil
}

// Complete finalizes a running job: actual duration is measured from
// actual_start_time, progress forced to 100.
func (s *JobService) Complete(ctx context.Context, id, summary, actor string) (*model.Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx,
		`UPDATE patch_jobs SET status = $1, completed_time = now(), progress_percentage = 100,
		 actual_duration = CASE WHEN actual_start_time IS NULL THEN NULL
		                        ELSE EXTRACT(EPOCH FROM (now() - actual_start_time))::int END,
		 updated_by = $2, updated_at = now()
		 WHERE id = $3 AND status = $4
		 RETURNING `+jobColumns,
		model.JobStatusCompleted, actor, id, model.JobStatusRunning))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionError(ctx, id, model.JobStatusCompleted)
		}
		return nil, fmt.Errorf("complete job %s: %w", id, err)
	}

	msg := "job completed"
	if summary != "" {
		msg = "job completed: " + summary
	}
	if err := insertJobLog(ctx, s.db, id, model.LogLevelInfo, msg, "job-registry"); err != nil {
		return nil, err
	}
	metrics.JobTransitionsTotal.WithLabelValues(model.JobStatusCompleted).Inc()
	return job, nil
}

// Fail finalizes a running job as failed, storing the error message and exit
// code. Duration is computed the same way as Complete.
func (s *JobService) Fail(ctx context.Context, id, message string, exitCode int, actor string) (*model.Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx,
		`UPDATE patch_jobs SET status = $1, completed_time = now(), error_message = $2, exit_code = $3,
		 actual_duration = CASE WHEN actual_start_time IS NULL THEN NULL
		                        ELSE EXTRACT(EPOCH FROM (now() - actual_start_time))::int END,
		 updated_by = $4, updated_at = now()
		 WHERE id = $5 AND status = $6
		 RETURNING `+jobColumns,
		model.JobStatusFailed, message, exitCode, actor, id, model.JobStatusRunning))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.transitionError(ctx, id, model.JobStatusFailed)
		}
		return nil, fmt.Errorf("fail job %s: %w", id, err)
	}

	if err := insertJobLog(ctx, s.db, id, model.LogLevelError, fmt.Sprintf("job failed: %s", message), "job-registry"); err != nil {
		return nil, err
	}
	metrics.JobTransitionsTotal.WithLabelValues(model.JobStatusFailed).Inc()
	return job, nil
}

// transitionError distinguishes a missing job from a wrong-state job after a
// guarded update matched zero rows.
func (s *JobService) transitionError(ctx context.Context, id, to string) error {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM patch_jobs WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("get job %s status: %w", id, err)
	}
	return &InvalidTransitionError{JobID: id, From: status, To: to}
}
