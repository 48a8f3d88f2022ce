package core

import (
	"context"
	"fmt"

	"github.com/cypher-grc/cypher/internal/model"
)

// ScheduleExclusionService is plain CRUD over schedule exclusion windows and
// excluded assets.
type ScheduleExclusionService struct {
	db DB
}

func NewScheduleExclusionService(db DB) *ScheduleExclusionService {
	return &ScheduleExclusionService{db: db}
}

func (s *ScheduleExclusionService) Create(ctx context.Context, excl *model.ScheduleExclusion) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO schedule_exclusions (id, schedule_id, exclusion_type, start_date, end_date, asset_id, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		excl.ID, excl.ScheduleID, excl.ExclusionType, excl.StartDate, excl.EndDate, excl.AssetID, excl.Reason, excl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create schedule exclusion: %w", err)
	}
	return nil
}

func (s *ScheduleExclusionService) ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleExclusion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, schedule_id, exclusion_type, start_date, end_date, asset_id, reason, created_at
		 FROM schedule_exclusions WHERE schedule_id = $1 ORDER BY id`, scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list exclusions for schedule %s: %w", scheduleID, err)
	}
	defer rows.Close()

	var excls []model.ScheduleExclusion
	for rows.Next() {
		var e model.ScheduleExclusion
		if err := rows.Scan(&e.ID, &e.ScheduleID, &e.ExclusionType, &e.StartDate, &e.EndDate, &e.AssetID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule exclusion: %w", err)
		}
		excls = append(excls, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule exclusions: %w", err)
	}
	return excls, nil
}

func (s *ScheduleExclusionService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM schedule_exclusions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule exclusion %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete schedule exclusion %s: %w", id, ErrNotFound)
	}
	return nil
}
