package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"* * * * *", false},
		{"0 2 * * *", false},
		{"*/15 0-6 * * 1-5", false},
		{"0 2 1 */3 *", false},
		{"", true},
		{"* * * *", true},
		{"61 * * * *", true},
		{"not a cron", true},
	}
	for _, tt := range tests {
		err := Validate(tt.expr)
		if tt.wantErr {
			assert.Error(t, err, "expr=%q", tt.expr)
		} else {
			assert.NoError(t, err, "expr=%q", tt.expr)
		}
	}
}

func TestNext_DailyAtTwo(t *testing.T) {
	after := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := Next("0 2 * * *", "", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC), next)
}

func TestNext_StrictlyAfter(t *testing.T) {
	// A call at exactly the activation instant must roll to the next one.
	after := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	next, err := Next("0 2 * * *", "", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC), next)
}

func TestNext_Timezone(t *testing.T) {
	after := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	next, err := Next("0 2 * * *", "America/New_York", after)
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 2, 2, 0, 0, 0, loc), next)
}

func TestNext_InvalidTimezone(t *testing.T) {
	_, err := Next("0 2 * * *", "Mars/Olympus", time.Now())
	assert.Error(t, err)
}

func TestNext_InvalidExpression(t *testing.T) {
	_, err := Next("bogus", "", time.Now())
	assert.Error(t, err)
}
