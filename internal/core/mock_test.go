package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/cypher-grc/cypher/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

// newEmptyMockRows returns a mockRows that yields zero rows.
func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Row builders ----------

// jobScanFunc fills the full patch_jobs column set for scanJob. Pointer
// columns stay NULL.
func jobScanFunc(id, status string) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = "deploy KB5051234"
		*(dest[3].(*string)) = "patch-1"
		*(dest[4].(*string)) = model.JobTypeInstall
		*(dest[5].(*string)) = status
		*(dest[6].(*string)) = model.SeverityMedium
		*(dest[7].(*string)) = "parallel"
		*(dest[13].(*int)) = 0
		*(dest[14].(*int)) = 0
		*(dest[15].(*int)) = 0
		*(dest[16].(*int)) = 0
		*(dest[17].(*int)) = 0
		*(dest[18].(*float64)) = 0
		*(dest[23].(*bool)) = false
		*(dest[28].(*time.Time)) = now
		*(dest[29].(*time.Time)) = now
		return nil
	}
}

// scheduleScanFunc fills the full patch_schedules column set for scanSchedule.
func scheduleScanFunc(id, scheduleType, status string, mutate func(s *model.Schedule)) func(dest ...any) error {
	now := time.Now().Truncate(time.Microsecond)
	sc := model.Schedule{
		ID:           id,
		Name:         "weekly critical",
		ScheduleType: scheduleType,
		Status:       status,
		Timezone:     "UTC",
		ErrorPolicy:  "continue",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sc.MaxConcurrentJobs = 10
	if mutate != nil {
		mutate(&sc)
	}
	return func(dest ...any) error {
		*(dest[0].(*string)) = sc.ID
		*(dest[1].(*string)) = sc.Name
		*(dest[2].(**string)) = sc.Description
		*(dest[3].(*string)) = sc.ScheduleType
		*(dest[4].(*string)) = sc.Status
		*(dest[5].(**time.Time)) = sc.StartDate
		*(dest[6].(**time.Time)) = sc.EndDate
		*(dest[7].(**time.Time)) = sc.NextRunTime
		*(dest[8].(**time.Time)) = sc.LastRunTime
		*(dest[9].(**string)) = sc.CronExpression
		*(dest[10].(*string)) = sc.Timezone
		*(dest[11].(**int)) = sc.IntervalMinutes
		*(dest[12].(*json.RawMessage)) = sc.PatchCriteria
		*(dest[13].(*json.RawMessage)) = sc.AssetCriteria
		*(dest[14].(*int)) = sc.MaxConcurrentJobs
		*(dest[15].(*string)) = sc.ErrorPolicy
		*(dest[16].(**string)) = sc.MaintenanceWindow
		*(dest[17].(*bool)) = sc.RollbackOnFailure
		*(dest[18].(*int)) = sc.TotalRuns
		*(dest[19].(*int)) = sc.SuccessfulRuns
		*(dest[20].(*int)) = sc.FailedRuns
		*(dest[21].(**float64)) = sc.AverageRunDuration
		*(dest[22].(*bool)) = sc.IsTemplate
		*(dest[23].(**string)) = sc.CreatedBy
		*(dest[24].(*time.Time)) = sc.CreatedAt
		*(dest[25].(*time.Time)) = sc.UpdatedAt
		return nil
	}
}
