package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_JobAnalytics_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	summary := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 12
		avg := 340.5
		*(dest[1].(**float64)) = &avg
		rate := 0.75
		*(dest[2].(**float64)) = &rate
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(summary)

	byStatus := newMockRows(
		func(dest ...any) error {
			*(dest[0].(*string)) = "completed"
			*(dest[1].(*int)) = 9
			return nil
		},
		func(dest ...any) error {
			*(dest[0].(*string)) = "failed"
			*(dest[1].(*int)) = 3
			return nil
		},
	)
	byType := newMockRows(func(dest ...any) error {
		*(dest[0].(*string)) = "install"
		*(dest[1].(*int)) = 12
		return nil
	})
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(byStatus, nil).Once()
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(byType, nil).Once()

	a, err := svc.JobAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, a.Total)
	require.NotNil(t, a.AvgDurationSeconds)
	assert.Equal(t, 340.5, *a.AvgDurationSeconds)
	require.NotNil(t, a.SuccessRate)
	assert.Equal(t, 0.75, *a.SuccessRate)
	require.Len(t, a.ByStatus, 2)
	assert.Equal(t, "completed", a.ByStatus[0].Status)
	require.Len(t, a.ByType, 1)
	assert.Equal(t, "install", a.ByType[0].Type)
	db.AssertExpectations(t)
}

func TestAnalyticsService_JobAnalytics_EmptyTable(t *testing.T) {
	db := &mockDB{}
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	summary := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 0
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(summary)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil)

	a, err := svc.JobAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Total)
	assert.Nil(t, a.AvgDurationSeconds)
	assert.Nil(t, a.SuccessRate)
	assert.Empty(t, a.ByStatus)
	db.AssertExpectations(t)
}

func TestAnalyticsService_ScheduleAnalytics_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	summary := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 4
		*(dest[1].(*int)) = 20
		*(dest[2].(*int)) = 18
		*(dest[3].(*int)) = 2
		avg := 55.0
		*(dest[4].(**float64)) = &avg
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(summary)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil)

	a, err := svc.ScheduleAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Total)
	assert.Equal(t, 20, a.TotalRuns)
	assert.Equal(t, 18, a.SuccessfulRuns)
	assert.Equal(t, 2, a.FailedRuns)
	require.NotNil(t, a.AvgRunDuration)
	assert.Equal(t, 55.0, *a.AvgRunDuration)
	db.AssertExpectations(t)
}

func TestAnalyticsService_JobAnalytics_SummaryError(t *testing.T) {
	db := &mockDB{}
	svc := NewAnalyticsService(db)
	ctx := context.Background()

	summary := &mockRow{scanFunc: func(dest ...any) error { return errors.New("db error") }}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(summary)

	a, err := svc.JobAnalytics(ctx)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "job analytics summary")
	db.AssertExpectations(t)
}
