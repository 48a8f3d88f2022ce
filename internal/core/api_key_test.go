package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = time.Now()
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	key, rawKey, err := svc.Create(ctx, "ci-pipeline")
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, "ci-pipeline", key.Name)
	assert.True(t, strings.HasPrefix(rawKey, "cyk_"))
	assert.Equal(t, rawKey[:12], key.KeyPrefix)
	db.AssertExpectations(t)
}

func TestAPIKeyService_Revoke_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Revoke(ctx, "nonexistent-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	db.AssertExpectations(t)
}

func TestAPIKeyService_List_HasMore(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	keyRow := func(id string) func(dest ...any) error {
		return func(dest ...any) error {
			*(dest[0].(*string)) = id
			*(dest[1].(*string)) = "ci-pipeline"
			*(dest[2].(*string)) = "cyk_deadbeef"
			*(dest[3].(*time.Time)) = now
			return nil
		}
	}
	rows := newMockRows(keyRow("key-1"), keyRow("key-2"))
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	keys, hasMore, err := svc.List(ctx, 1, "")
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, keys, 1)
	db.AssertExpectations(t)
}
