package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cypher-grc/cypher/internal/model"
)

func depEdgeScanFunc(dependsOnID string, optional bool, status string) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = dependsOnID
		*(dest[1].(*bool)) = optional
		*(dest[2].(*string)) = status
		return nil
	}
}

// ---------- Create ----------

func TestJobDependencyService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewJobDependencyService(db)
	ctx := context.Background()

	dep := &model.JobDependency{
		ID:             "dep-1",
		JobID:          "job-2",
		DependsOnJobID: "job-1",
		DependencyType: "completion",
		FailureAction:  model.FailureActionBlock,
		CreatedAt:      time.Now(),
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.Create(ctx, dep)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

// ---------- ListByJob ----------

func TestJobDependencyService_ListByJob_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewJobDependencyService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	rows := newMockRows(func(dest ...any) error {
		*(dest[0].(*string)) = "dep-1"
		*(dest[1].(*string)) = "job-2"
		*(dest[2].(*string)) = "job-1"
		*(dest[3].(*string)) = "completion"
		*(dest[4].(*bool)) = false
		*(dest[5].(*string)) = model.FailureActionBlock
		*(dest[6].(*time.Time)) = now
		*(dest[7].(*string)) = "deploy KB5051234"
		*(dest[8].(*string)) = model.JobStatusRunning
		return nil
	})
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	deps, err := svc.ListByJob(ctx, "job-2")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "job-1", deps[0].DependsOnJobID)
	assert.Equal(t, "deploy KB5051234", deps[0].DependsOnJobName)
	assert.Equal(t, model.JobStatusRunning, deps[0].DependsOnJobStatus)
	db.AssertExpectations(t)
}

// ---------- Delete ----------

func TestJobDependencyService_Delete_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewJobDependencyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("DELETE 0"), nil)

	err := svc.Delete(ctx, "nonexistent-dep")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertExpectations(t)
}

// ---------- CanStart ----------

func TestJobDependencyService_CanStart_NoDependencies(t *testing.T) {
	db := &mockDB{}
	svc := NewJobDependencyService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil)

	check, err := svc.CanStart(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, check.CanStart)
	assert.Empty(t, check.Reason)
	db.AssertExpectations(t)
}

func TestJobDependencyService_CanStart_AllCompleted(t *testing.T) {
	db := &mockDB{}
	svc := NewJobDependencyService(db)
	ctx := context.Background()

	rows := newMockRows(
		depEdgeScanFunc("job-0", false, model.JobStatusCompleted),
		depEdgeScanFunc("job-1", false, model.JobStatusCompleted),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	check, err := svc.CanStart(ctx, "job-2")
	require.NoError(t, err)
	assert.True(t, check.CanStart)
	db.AssertExpectations(t)
}

func TestJobDependencyService_CanStart_BlockedByIncomplete(t *testing.T) {
	db := &mockDB{}
	svc := NewJobDependencyService(db)
	ctx := context.Background()

	rows := newMockRows(depEdgeScanFunc("job-0", false, model.JobStatusFailed))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	check, err := svc.CanStart(ctx, "job-2")
	require.NoError(t, err)
	assert.False(t, check.CanStart)
	assert.Contains(t, check.Reason, "job-0")
	assert.Contains(t, check.Reason, model.JobStatusFailed)
	db.AssertExpectations(t)
}

func TestJobDependencyService_CanStart_OptionalIncompleteIgnored(t *testing.T) {
	db := &mockDB{}
	svc := NewJobDependencyService(db)
	ctx := context.Background()

	rows := newMockRows(
		depEdgeScanFunc("job-0", true, model.JobStatusFailed),
		depEdgeScanFunc("job-1", false, model.JobStatusCompleted),
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	check, err := svc.CanStart(ctx, "job-2")
	require.NoError(t, err)
	assert.True(t, check.CanStart)
	db.AssertExpectations(t)
}
