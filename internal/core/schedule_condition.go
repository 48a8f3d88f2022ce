package core

import (
	"context"
	"fmt"

	"github.com/cypher-grc/cypher/internal/model"
)

// ScheduleConditionService is plain CRUD over schedule pre-condition records.
type ScheduleConditionService struct {
	db DB
}

func NewScheduleConditionService(db DB) *ScheduleConditionService {
	return &ScheduleConditionService{db: db}
}

func (s *ScheduleConditionService) Create(ctx context.Context, cond *model.ScheduleCondition) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO schedule_conditions (id, schedule_id, condition_type, operator, value, required, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		cond.ID, cond.ScheduleID, cond.ConditionType, cond.Operator, cond.Value, cond.Required, cond.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create schedule condition: %w", err)
	}
	return nil
}

func (s *ScheduleConditionService) ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleCondition, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, schedule_id, condition_type, operator, value, required, created_at
		 FROM schedule_conditions WHERE schedule_id = $1 ORDER BY id`, scheduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list conditions for schedule %s: %w", scheduleID, err)
	}
	defer rows.Close()

	var conds []model.ScheduleCondition
	for rows.Next() {
		var c model.ScheduleCondition
		if err := rows.Scan(&c.ID, &c.ScheduleID, &c.ConditionType, &c.Operator, &c.Value, &c.Required, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan schedule condition: %w", err)
		}
		conds = append(conds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule conditions: %w", err)
	}
	return conds, nil
}

func (s *ScheduleConditionService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM schedule_conditions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule condition %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete schedule condition %s: %w", id, ErrNotFound)
	}
	return nil
}
