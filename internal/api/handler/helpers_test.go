package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cypher-grc/cypher/internal/core"
)

func TestWriteServiceError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, fmt.Errorf("get job x: %w", core.ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "not found")
}

func TestWriteServiceError_InvalidTransition(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, &core.InvalidTransitionError{JobID: "job-1", From: "completed", To: "running"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "cannot transition from completed to running")
}

func TestWriteServiceError_DependencyNotMet(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, &core.DependencyNotMetError{JobID: "job-1", Reason: "dependency job-0 has status failed"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "cannot start")
}

func TestWriteServiceError_Default(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
