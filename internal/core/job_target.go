package core

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/cypher-grc/cypher/internal/model"
	"github.com/cypher-grc/cypher/internal/platform"
)

// JobTargetService expands a job into per-asset targets and keeps the job's
// aggregate counters consistent with target state.
type JobTargetService struct {
	db DB
}

func NewJobTargetService(db DB) *JobTargetService {
	return &JobTargetService{db: db}
}

// CreateTargets bulk-inserts one queued target per asset and sets the job's
// total_targets to the created count.
func (s *JobTargetService) CreateTargets(ctx context.Context, jobID string, assetIDs []string, maxRetries int) ([]model.JobTarget, error) {
	if len(assetIDs) == 0 {
		return nil, fmt.Errorf("create targets for job %s: no assets given", jobID)
	}

	query := `INSERT INTO patch_job_targets (id, job_id, asset_id, status, retry_count, max_retries, created_at, updated_at) VALUES `
	args := make([]any, 0, len(assetIDs)*4)
	for i, assetID := range assetIDs {
		if i > 0 {
			query += ", "
		}
		base := i * 4
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, 0, %d, now(), now())", base+1, base+2, base+3, base+4, maxRetries)
		args = append(args, platform.NewID(), jobID, assetID, model.TargetStatusQueued)
	}
	query += ` RETURNING id, job_id, asset_id, status, start_time, end_time, duration, exit_code,
		stdout, stderr, error_message, pre_check_passed, post_validation_passed,
		retry_count, max_retries, executor_id, created_at, updated_at`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("create targets for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var targets []model.JobTarget
	for rows.Next() {
		t, err := scanJobTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan created target: %w", err)
		}
		targets = append(targets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate created targets: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE patch_jobs SET total_targets = $1, updated_at = now() WHERE id = $2`,
		len(targets), jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("set total targets for job %s: %w", jobID, err)
	}

	return targets, nil
}

// TargetUpdate carries per-target result fields. Nil fields are left
// untouched.
type TargetUpdate struct {
	Status               *string
	ExitCode             *int
	Stdout               *string
	Stderr               *string
	ErrorMessage         *string
	PreCheckPassed       *bool
	PostValidationPassed *bool
	RetryCount           *int
	ExecutorID           *string
}

// UpdateTarget applies result fields to one target. A transition to running
// stamps start_time; a terminal status stamps end_time, computes the target
// duration, and re-aggregates the owning job's counters.
func (s *JobTargetService) UpdateTarget(ctx context.Context, targetID string, upd TargetUpdate) (*model.JobTarget, error) {
	query := `UPDATE patch_job_targets SET updated_at = now()`
	var args []any
	argIdx := 1

	set := func(column string, value any) {
		query += fmt.Sprintf(`, %s = $%d`, column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if upd.Status != nil {
		set("status", *upd.Status)
		if *upd.Status == model.TargetStatusRunning {
			query += `, start_time = now()`
		}
		if model.TargetIsTerminal(*upd.Status) {
			query += `, end_time = now(),
				duration = CASE WHEN start_time IS NULL THEN NULL
				                ELSE EXTRACT(EPOCH FROM (now() - start_time))::int END`
		}
	}
	if upd.ExitCode != nil {
		set("exit_code", *upd.ExitCode)
	}
	if upd.Stdout != nil {
		set("stdout", *upd.Stdout)
	}
	if upd.Stderr != nil {
		set("stderr", *upd.Stderr)
	}
	if upd.ErrorMessage != nil {
		set("error_message", *upd.ErrorMessage)
	}
	if upd.PreCheckPassed != nil {
		set("pre_check_passed", *upd.PreCheckPassed)
	}
	if upd.PostValidationPassed != nil {
		set("post_validation_passed", *upd.PostValidationPassed)
	}
	if upd.RetryCount != nil {
		set("retry_count", *upd.RetryCount)
	}
	if upd.ExecutorID != nil {
		set("executor_id", *upd.ExecutorID)
	}

	query += fmt.Sprintf(` WHERE id = $%d RETURNING id, job_id, asset_id, status, start_time, end_time,
		duration, exit_code, stdout, stderr, error_message, pre_check_passed, post_validation_passed,
		retry_count, max_retries, executor_id, created_at, updated_at`, argIdx)
	args = append(args, targetID)

	target, err := scanJobTarget(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update target %s: %w", targetID, ErrNotFound)
		}
		return nil, fmt.Errorf("update target %s: %w", targetID, err)
	}

	if upd.Status != nil && model.TargetIsTerminal(*upd.Status) {
		if err := s.RecomputeProgress(ctx, target.JobID); err != nil {
			return nil, err
		}
	}

	return target, nil
}

// RecomputeProgress recounts targets grouped by status and writes the
// aggregates back to the job. This is the sole path that keeps job counters
// truthful; target mutations must not bypass it.
func (s *JobTargetService) RecomputeProgress(ctx context.Context, jobID string) error {
	var total, successful, failed, skipped int
	err := s.db.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'completed'),
		        count(*) FILTER (WHERE status = 'failed'),
		        count(*) FILTER (WHERE status = 'skipped')
		 FROM patch_job_targets WHERE job_id = $1`, jobID,
	).Scan(&total, &successful, &failed, &skipped)
	if err != nil {
		return fmt.Errorf("count targets for job %s: %w", jobID, err)
	}

	completed := successful + failed + skipped
	var progress float64
	if total > 0 {
		progress = math.Round(float64(completed)*100/float64(total)*100) / 100
	}

	_, err = s.db.Exec(ctx,
		`UPDATE patch_jobs SET total_targets = $1, completed_targets = $2, successful_targets = $3,
		 failed_targets = $4, skipped_targets = $5, progress_percentage = $6, updated_at = now()
		 WHERE id = $7`,
		total, completed, successful, failed, skipped, progress, jobID,
	)
	if err != nil {
		return fmt.Errorf("update progress for job %s: %w", jobID, err)
	}
	return nil
}

// ListByJob returns a job's targets ordered by id.
func (s *JobTargetService) ListByJob(ctx context.Context, jobID string, limit int, cursor string) ([]model.JobTarget, bool, error) {
	query := `SELECT id, job_id, asset_id, status, start_time, end_time, duration, exit_code,
		 stdout, stderr, error_message, pre_check_passed, post_validation_passed,
		 retry_count, max_retries, executor_id, created_at, updated_at
		 FROM patch_job_targets WHERE job_id = $1`
	args := []any{jobID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += fmt.Sprintf(` ORDER BY id LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list targets for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var targets []model.JobTarget
	for rows.Next() {
		t, err := scanJobTarget(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate targets: %w", err)
	}

	hasMore := len(targets) > limit
	if hasMore {
		targets = targets[:limit]
	}
	return targets, hasMore, nil
}

func scanJobTarget(row pgx.Row) (*model.JobTarget, error) {
	var t model.JobTarget
	err := row.Scan(&t.ID, &t.JobID, &t.AssetID, &t.Status, &t.StartTime, &t.EndTime, &t.Duration,
		&t.ExitCode, &t.Stdout, &t.Stderr, &t.ErrorMessage, &t.PreCheckPassed,
		&t.PostValidationPassed, &t.RetryCount, &t.MaxRetries, &t.ExecutorID,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
