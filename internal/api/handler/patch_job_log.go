package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cypher-grc/cypher/internal/api/request"
	"github.com/cypher-grc/cypher/internal/api/response"
	"github.com/cypher-grc/cypher/internal/core"
	"github.com/cypher-grc/cypher/internal/model"
	"github.com/cypher-grc/cypher/internal/platform"
)

type PatchJobLog struct {
	svc *core.JobLogService
}

func NewPatchJobLog(services *core.Services) *PatchJobLog {
	return &PatchJobLog{svc: services.JobLog}
}

// List godoc
//
//	@Summary	List a job's diagnostic log entries
//	@Tags		Patch Job Logs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Param		level query string false "Filter by level"
//	@Param		limit query int false "Page size" default(50)
//	@Param		cursor query string false "Pagination cursor"
//	@Success	200 {object} response.PaginatedResponse{items=[]model.JobLog}
//	@Router		/patch-jobs/{id}/logs [get]
func (h *PatchJobLog) List(w http.ResponseWriter, r *http.Request) {
	jobID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pg := request.ParsePagination(r)
	logs, hasMore, err := h.svc.ListByJob(r.Context(), jobID, r.URL.Query().Get("level"), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(logs) > 0 {
		nextCursor = logs[len(logs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, logs, nextCursor, hasMore)
}

// Append godoc
//
//	@Summary	Append a diagnostic log entry to a job
//	@Tags		Patch Job Logs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Param		body body request.AppendJobLog true "Log entry"
//	@Success	201 {object} model.JobLog
//	@Failure	400 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id}/logs [post]
func (h *PatchJobLog) Append(w http.ResponseWriter, r *http.Request) {
	jobID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.AppendJobLog
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var metadata json.RawMessage
	if req.Metadata != nil {
		metadata, _ = json.Marshal(req.Metadata)
	}

	entry := &model.JobLog{
		ID:        platform.NewID(),
		JobID:     jobID,
		Level:     req.Level,
		Message:   req.Message,
		Component: stringOr(req.Component, "external"),
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	if err := h.svc.Append(r.Context(), entry); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, entry)
}
