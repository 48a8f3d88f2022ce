package core

import (
	"context"
	"fmt"

	"github.com/cypher-grc/cypher/internal/model"
)

// JobDependencyService records directed "depends-on" edges between jobs and
// evaluates whether a job's prerequisites are satisfied.
type JobDependencyService struct {
	db DB
}

func NewJobDependencyService(db DB) *JobDependencyService {
	return &JobDependencyService{db: db}
}

func (s *JobDependencyService) Create(ctx context.Context, dep *model.JobDependency) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO patch_job_dependencies (id, job_id, depends_on_job_id, dependency_type, optional, failure_action, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		dep.ID, dep.JobID, dep.DependsOnJobID, dep.DependencyType, dep.Optional, dep.FailureAction, dep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create job dependency: %w", err)
	}
	return nil
}

// ListByJob returns a job's dependency edges joined with each referenced
// job's current name and status.
func (s *JobDependencyService) ListByJob(ctx context.Context, jobID string) ([]model.JobDependencyStatus, error) {
	rows, err := s.db.Query(ctx,
		`SELECT d.id, d.job_id, d.depends_on_job_id, d.dependency_type, d.optional, d.failure_action, d.created_at,
		        j.name, j.status
		 FROM patch_job_dependencies d
		 JOIN patch_jobs j ON j.id = d.depends_on_job_id
		 WHERE d.job_id = $1
		 ORDER BY d.id`, jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dependencies for job %s: %w", jobID, err)
	}
	defer rows.Close()

	var deps []model.JobDependencyStatus
	for rows.Next() {
		var d model.JobDependencyStatus
		if err := rows.Scan(&d.ID, &d.JobID, &d.DependsOnJobID, &d.DependencyType, &d.Optional,
			&d.FailureAction, &d.CreatedAt, &d.DependsOnJobName, &d.DependsOnJobStatus); err != nil {
			return nil, fmt.Errorf("scan job dependency: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job dependencies: %w", err)
	}
	return deps, nil
}

func (s *JobDependencyService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM patch_job_dependencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job dependency %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete job dependency %s: %w", id, ErrNotFound)
	}
	return nil
}

// StartCheck is the result of evaluating a job's prerequisites.
type StartCheck struct {
	CanStart bool   `json:"can_start"`
	Reason   string `json:"reason,omitempty"`
}

// CanStart reports whether every non-optional prerequisite has completed. A
// job with no dependencies can always start. JobService.Start runs the same
// evaluation before transitioning; this method exists for inspection.
func (s *JobDependencyService) CanStart(ctx context.Context, jobID string) (StartCheck, error) {
	ok, reason, err := evalDependencies(ctx, s.db, jobID)
	if err != nil {
		return StartCheck{}, err
	}
	return StartCheck{CanStart: ok, Reason: reason}, nil
}

// evalDependencies returns false with a reason on the first non-optional edge
// whose referenced job is not completed.
func evalDependencies(ctx context.Context, db DB, jobID string) (bool, string, error) {
	rows, err := db.Query(ctx,
		`SELECT d.depends_on_job_id, d.optional, j.status
		 FROM patch_job_dependencies d
		 JOIN patch_jobs j ON j.id = d.depends_on_job_id
		 WHERE d.job_id = $1
		 ORDER BY d.id`, jobID,
	)
	if err != nil {
		return false, "", fmt.Errorf("evaluate dependencies for job %s: %w", jobID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var dependsOnID, status string
		var optional bool
		if err := rows.Scan(&dependsOnID, &optional, &status); err != nil {
			return false, "", fmt.Errorf("scan dependency: %w", err)
		}
		if optional {
			continue
		}
		if status != model.JobStatusCompleted {
			return false, fmt.Sprintf("dependency job %s is %s, not completed", dependsOnID, status), nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, "", fmt.Errorf("iterate dependencies: %w", err)
	}
	return true, "", nil
}
