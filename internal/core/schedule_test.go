package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cypher-grc/cypher/internal/model"
)

func newScheduleService(db *mockDB) *ScheduleService {
	jobs := NewJobService(db)
	targets := NewJobTargetService(db)
	return NewScheduleService(db, jobs, targets)
}

// ---------- computeNextRun ----------

func TestComputeNextRun_OneTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	sched := &model.Schedule{ScheduleType: model.ScheduleTypeOneTime, StartDate: &start}

	next, err := computeNextRun(sched, time.Now())
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, start, *next)
}

func TestComputeNextRun_RecurringCron(t *testing.T) {
	expr := "*/15 * * * *"
	sched := &model.Schedule{
		ScheduleType:   model.ScheduleTypeRecurring,
		CronExpression: &expr,
		Timezone:       "UTC",
	}
	now := time.Date(2026, 3, 1, 2, 7, 0, 0, time.UTC)

	next, err := computeNextRun(sched, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, 3, 1, 2, 15, 0, 0, time.UTC), *next)
}

func TestComputeNextRun_RecurringInterval(t *testing.T) {
	interval := 90
	sched := &model.Schedule{
		ScheduleType:    model.ScheduleTypeRecurring,
		IntervalMinutes: &interval,
	}
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	next, err := computeNextRun(sched, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, now.Add(90*time.Minute), *next)
}

func TestComputeNextRun_RecurringCronWinsOverInterval(t *testing.T) {
	expr := "0 3 * * *"
	interval := 5
	sched := &model.Schedule{
		ScheduleType:    model.ScheduleTypeRecurring,
		CronExpression:  &expr,
		Timezone:        "UTC",
		IntervalMinutes: &interval,
	}
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	next, err := computeNextRun(sched, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC), *next)
}

func TestComputeNextRun_RecurringWithoutSpec(t *testing.T) {
	sched := &model.Schedule{ScheduleType: model.ScheduleTypeRecurring}

	next, err := computeNextRun(sched, time.Now())
	require.Error(t, err)
	assert.Nil(t, next)
	assert.Contains(t, err.Error(), "cron expression or interval")
}

func TestComputeNextRun_InvalidCron(t *testing.T) {
	expr := "not a cron"
	sched := &model.Schedule{
		ScheduleType:   model.ScheduleTypeRecurring,
		CronExpression: &expr,
		Timezone:       "UTC",
	}

	next, err := computeNextRun(sched, time.Now())
	require.Error(t, err)
	assert.Nil(t, next)
}

func TestComputeNextRun_UnknownType(t *testing.T) {
	sched := &model.Schedule{ScheduleType: "hourly"}

	_, err := computeNextRun(sched, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schedule type")
}

// ---------- Create ----------

func TestScheduleService_Create_ComputesNextRun(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	interval := 60
	sched := &model.Schedule{
		ID:              "sched-1",
		Name:            "hourly scan",
		ScheduleType:    model.ScheduleTypeRecurring,
		Status:          model.ScheduleStatusActive,
		Timezone:        "UTC",
		IntervalMinutes: &interval,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.Create(ctx, sched)
	require.NoError(t, err)
	require.NotNil(t, sched.NextRunTime)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *sched.NextRunTime, 5*time.Second)
	db.AssertExpectations(t)
}

func TestScheduleService_Create_InvalidRecurrence(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)

	sched := &model.Schedule{ID: "sched-1", ScheduleType: model.ScheduleTypeRecurring}

	err := svc.Create(context.Background(), sched)
	require.Error(t, err)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

// ---------- GetByID ----------

func TestScheduleService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	result, err := svc.GetByID(ctx, "nonexistent-sched")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertExpectations(t)
}

// ---------- GetDue ----------

func TestScheduleService_GetDue_Success(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	rows := newMockRows(
		scheduleScanFunc("sched-1", model.ScheduleTypeRecurring, model.ScheduleStatusActive, nil),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 1 && args[0] == model.ScheduleStatusActive
	})).Return(rows, nil)

	due, err := svc.GetDue(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "sched-1", due[0].ID)
	db.AssertExpectations(t)
}

// ---------- ExecuteNow ----------

func TestScheduleService_ExecuteNow_EmptyCriteriaFiresWithZeroJobs(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	interval := 60
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{
		scanFunc: scheduleScanFunc("sched-1", model.ScheduleTypeRecurring, model.ScheduleStatusActive,
			func(s *model.Schedule) { s.IntervalMinutes = &interval }),
	})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	exec, err := svc.ExecuteNow(ctx, "sched-1", "system")
	require.NoError(t, err)
	require.NotNil(t, exec)
	assert.Equal(t, model.ExecutionStatusCompleted, exec.Status)
	assert.Empty(t, exec.JobIDs)
	assert.Equal(t, "sched-1", exec.ScheduleID)
	require.NotNil(t, exec.EndTime)
	db.AssertExpectations(t)
}

// ---------- UpdateStats ----------

func TestScheduleService_UpdateStats_SuccessWeightedMean(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	interval := 60
	avg := 10.0
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{
		scanFunc: scheduleScanFunc("sched-1", model.ScheduleTypeRecurring, model.ScheduleStatusActive,
			func(s *model.Schedule) {
				s.IntervalMinutes = &interval
				s.TotalRuns = 3
				s.SuccessfulRuns = 2
				s.FailedRuns = 1
				s.AverageRunDuration = &avg
			}),
	})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		if len(args) != 6 {
			return false
		}
		newAvg, ok := args[3].(*float64)
		next, okNext := args[4].(*time.Time)
		return args[0] == 4 && args[1] == 3 && args[2] == 1 &&
			ok && newAvg != nil && *newAvg == 20.0 &&
			okNext && next != nil && args[5] == "sched-1"
	})).Return(pgconn.CommandTag{}, nil)

	err := svc.UpdateStats(ctx, "sched-1", true, 40)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestScheduleService_UpdateStats_FailureLeavesAverage(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	interval := 60
	avg := 10.0
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{
		scanFunc: scheduleScanFunc("sched-1", model.ScheduleTypeRecurring, model.ScheduleStatusActive,
			func(s *model.Schedule) {
				s.IntervalMinutes = &interval
				s.TotalRuns = 3
				s.SuccessfulRuns = 2
				s.FailedRuns = 1
				s.AverageRunDuration = &avg
			}),
	})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		if len(args) != 6 {
			return false
		}
		newAvg, ok := args[3].(*float64)
		return args[0] == 4 && args[1] == 2 && args[2] == 2 && ok && *newAvg == 10.0
	})).Return(pgconn.CommandTag{}, nil)

	err := svc.UpdateStats(ctx, "sched-1", false, 40)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestScheduleService_UpdateStats_OneTimeClearsNextRun(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{
		scanFunc: scheduleScanFunc("sched-1", model.ScheduleTypeOneTime, model.ScheduleStatusActive,
			func(s *model.Schedule) {
				s.StartDate = &start
				s.NextRunTime = &start
			}),
	})
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		if len(args) != 6 {
			return false
		}
		next, ok := args[4].(*time.Time)
		return ok && next == nil
	})).Return(pgconn.CommandTag{}, nil)

	err := svc.UpdateStats(ctx, "sched-1", true, 5)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

// ---------- setStatus ----------

func TestScheduleService_Activate_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Activate(ctx, "nonexistent-sched")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertExpectations(t)
}

func TestScheduleService_Disable_Success(t *testing.T) {
	db := &mockDB{}
	svc := newScheduleService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 2 && args[0] == model.ScheduleStatusDisabled
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := svc.Disable(ctx, "sched-1")
	require.NoError(t, err)
	db.AssertExpectations(t)
}
