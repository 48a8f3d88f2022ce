package core

import (
	"context"
	"fmt"

	"github.com/cypher-grc/cypher/internal/model"
	"github.com/cypher-grc/cypher/internal/platform"
)

// insertJobLog appends one diagnostic entry for a job. Used by the lifecycle
// transitions as well as the log service itself.
func insertJobLog(ctx context.Context, db DB, jobID, level, message, component string) error {
	_, err := db.Exec(ctx,
		`INSERT INTO patch_job_logs (id, job_id, level, message, component, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		platform.NewID(), jobID, level, message, component,
	)
	if err != nil {
		return fmt.Errorf("insert job log for %s: %w", jobID, err)
	}
	return nil
}

// JobLogService reads and appends job diagnostic entries. Entries are
// write-once; there is no update or delete path.
type JobLogService struct {
	db DB
}

func NewJobLogService(db DB) *JobLogService {
	return &JobLogService{db: db}
}

func (s *JobLogService) Append(ctx context.Context, entry *model.JobLog) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO patch_job_logs (id, job_id, level, message, component, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())`,
		entry.ID, entry.JobID, entry.Level, entry.Message, entry.Component, entry.Metadata,
	)
	if err != nil {
		return fmt.Errorf("append job log for %s: %w", entry.JobID, err)
	}
	return nil
}

// ListByJob returns log entries for a job, oldest first. An empty level
// returns all levels.
func (s *JobLogService) ListByJob(ctx context.Context, jobID, level string, limit int, cursor string) ([]model.JobLog, bool, error) {
	query := `SELECT id, job_id, level, message, component, metadata, created_at
		 FROM patch_job_logs WHERE job_id = $1`
	args := []any{jobID}
	argIdx := 2

	if level != "" {
		query += fmt.Sprintf(` AND level = $%d`, argIdx)
		args = append(args, level)
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
		return nil, false, fmt.Errorf("list job logs for %s: %w", jobID, err)
	}
	defer rows.Close()

	var logs []model.JobLog
	for rows.Next() {
		var l model.JobLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.Level, &l.Message, &l.Component, &l.Metadata, &l.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan job log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate job logs: %w", err)
	}

	hasMore := len(logs) > limit
	if hasMore {
		logs = logs[:limit]
	}
	return logs, hasMore, nil
}
