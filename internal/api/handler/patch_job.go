package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cypher-grc/cypher/internal/api/middleware"
	"github.com/cypher-grc/cypher/internal/api/request"
	"github.com/cypher-grc/cypher/internal/api/response"
	"github.com/cypher-grc/cypher/internal/core"
	"github.com/cypher-grc/cypher/internal/model"
	"github.com/cypher-grc/cypher/internal/platform"
)

type PatchJob struct {
	svc *core.JobService
}

func NewPatchJob(services *core.Services) *PatchJob {
	return &PatchJob{svc: services.Job}
}

// Create godoc
//
//	@Summary		Create a patch job
//	@Description	Creates a patch deployment job in queued state. Target fan-out happens separately via the targets endpoint.
//	@Tags			Patch Jobs
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateJob true "Job details"
//	@Success		201 {object} model.Job
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/patch-jobs [post]
func (h *PatchJob) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := middleware.Actor(r.Context())
	now := time.Now()
	job := &model.Job{
		ID:                 platform.NewID(),
		Name:               req.Name,
		Description:        req.Description,
		PatchID:            req.PatchID,
		JobType:            req.JobType,
		Status:             model.JobStatusQueued,
		Priority:           stringOr(req.Priority, "medium"),
		ExecutionMode:      stringOr(req.ExecutionMode, "parallel"),
		ScheduledStartTime: req.ScheduledStartTime,
		EstimatedDuration:  req.EstimatedDuration,
		ParentJobID:        req.ParentJobID,
		BatchID:            req.BatchID,
		RequiresApproval:   req.RequiresApproval,
		CreatedBy:          &actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := h.svc.Create(r.Context(), job); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, job)
}

// List godoc
//
//	@Summary		List patch jobs
//	@Description	Returns a paginated list of jobs, optionally filtered by status, job type, priority, or batch.
//	@Tags			Patch Jobs
//	@Security		ApiKeyAuth
//	@Param			status query string false "Filter by status"
//	@Param			job_type query string false "Filter by job type"
//	@Param			priority query string false "Filter by priority"
//	@Param			batch_id query string false "Filter by batch"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Job}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/patch-jobs [get]
func (h *PatchJob) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	filter := core.JobFilter{
		Status:   r.URL.Query().Get("status"),
		JobType:  r.URL.Query().Get("job_type"),
		Priority: r.URL.Query().Get("priority"),
		BatchID:  r.URL.Query().Get("batch_id"),
	}

	jobs, hasMore, err := h.svc.List(r.Context(), filter, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(jobs) > 0 {
		nextCursor = jobs[len(jobs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, jobs, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary	Get a patch job
//	@Tags		Patch Jobs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Success	200 {object} model.Job
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id} [get]
func (h *PatchJob) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, job)
}

// Update godoc
//
//	@Summary	Update mutable fields of a patch job
//	@Tags		Patch Jobs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Param		body body request.UpdateJob true "Fields to update"
//	@Success	200 {object} model.Job
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id} [put]
func (h *PatchJob) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Name != nil {
		job.Name = *req.Name
	}
	if req.Description != nil {
		job.Description = req.Description
	}
	if req.Priority != nil {
		job.Priority = *req.Priority
	}
	if req.ExecutionMode != nil {
		job.ExecutionMode = *req.ExecutionMode
	}
	if req.ScheduledStartTime != nil {
		job.ScheduledStartTime = req.ScheduledStartTime
	}
	if req.EstimatedDuration != nil {
		job.EstimatedDuration = req.EstimatedDuration
	}
	if req.RequiresApproval != nil {
		job.RequiresApproval = *req.RequiresApproval
	}

	if err := h.svc.Update(r.Context(), job, middleware.Actor(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, job)
}

// Delete godoc
//
//	@Summary	Delete a patch job
//	@Tags		Patch Jobs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Success	204
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id} [delete]
func (h *PatchJob) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start godoc
//
//	@Summary		Start a queued patch job
//	@Description	Moves the job to running. Fails with 409 when the job is not queued or a non-optional dependency has not completed.
//	@Tags			Patch Jobs
//	@Security		ApiKeyAuth
//	@Param			id path string true "Job ID"
//	@Success		200 {object} model.Job
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/patch-jobs/{id}/start [patch]
func (h *PatchJob) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Start)
}

// Pause godoc
//
//	@Summary	Pause a running patch job
//	@Tags		Patch Jobs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Success	200 {object} model.Job
//	@Failure	409 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id}/pause [patch]
func (h *PatchJob) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Pause)
}

// Resume godoc
//
//	@Summary	Resume a paused patch job
//	@Tags		Patch Jobs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Success	200 {object} model.Job
//	@Failure	409 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id}/resume [patch]
func (h *PatchJob) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Resume)
}

func (h *PatchJob) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actor string) (*model.Job, error)) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := fn(r.Context(), id, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, job)
}

// Cancel godoc
//
//	@Summary		Cancel a patch job
//	@Description	Bookkeeping only: marks the job cancelled with the given reason. No external process is stopped.
//	@Tags			Patch Jobs
//	@Security		ApiKeyAuth
//	@Param			id path string true "Job ID"
//	@Param			body body request.CancelJob true "Cancellation reason"
//	@Success		200 {object} model.Job
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/patch-jobs/{id}/cancel [patch]
func (h *PatchJob) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CancelJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.Cancel(r.Context(), id, middleware.Actor(r.Context()), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, job)
}

// Complete godoc
//
//	@Summary	Mark a running patch job completed
//	@Tags		Patch Jobs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Param		body body request.CompleteJob false "Completion summary"
//	@Success	200 {object} model.Job
//	@Failure	409 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id}/complete [patch]
func (h *PatchJob) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CompleteJob
	if r.ContentLength > 0 {
		if err := request.Decode(r, &req); err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	job, err := h.svc.Complete(r.Context(), id, req.Summary, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, job)
}

// Fail godoc
//
//	@Summary	Mark a running patch job failed
//	@Tags		Patch Jobs
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Param		body body request.FailJob true "Failure details"
//	@Success	200 {object} model.Job
//	@Failure	409 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id}/fail [patch]
func (h *PatchJob) Fail(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.FailJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.Fail(r.Context(), id, req.Message, req.ExitCode, middleware.Actor(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, job)
}

func stringOr(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
