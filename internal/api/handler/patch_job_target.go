package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cypher-grc/cypher/internal/api/request"
	"github.com/cypher-grc/cypher/internal/api/response"
	"github.com/cypher-grc/cypher/internal/core"
)

type PatchJobTarget struct {
	svc  *core.JobTargetService
	jobs *core.JobService
}

func NewPatchJobTarget(services *core.Services) *PatchJobTarget {
	return &PatchJobTarget{svc: services.JobTarget, jobs: services.Job}
}

// CreateTargets godoc
//
//	@Summary		Fan a job out to assets
//	@Description	Bulk-creates one queued target per asset and sets the job's total target count.
//	@Tags			Patch Job Targets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Job ID"
//	@Param			body body request.CreateJobTargets true "Asset identifiers"
//	@Success		201 {array} model.JobTarget
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/patch-jobs/{id}/targets [post]
func (h *PatchJobTarget) CreateTargets(w http.ResponseWriter, r *http.Request) {
	jobID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateJobTargets
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The job must exist before fan-out; asset existence is trusted.
	if _, err := h.jobs.GetByID(r.Context(), jobID); err != nil {
		writeServiceError(w, err)
		return
	}

	maxRetries := req.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	targets, err := h.svc.CreateTargets(r.Context(), jobID, req.AssetIDs, maxRetries)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, targets)
}

// ListTargets godoc
//
//	@Summary	List a job's targets
//	@Tags		Patch Job Targets
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Param		limit query int false "Page size" default(50)
//	@Param		cursor query string false "Pagination cursor"
//	@Success	200 {object} response.PaginatedResponse{items=[]model.JobTarget}
//	@Router		/patch-jobs/{id}/targets [get]
func (h *PatchJobTarget) ListTargets(w http.ResponseWriter, r *http.Request) {
	jobID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pg := request.ParsePagination(r)
	targets, hasMore, err := h.svc.ListByJob(r.Context(), jobID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(targets) > 0 {
		nextCursor = targets[len(targets)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, targets, nextCursor, hasMore)
}

// UpdateTarget godoc
//
//	@Summary		Record one asset's execution result
//	@Description	Applies result fields to a target. A terminal status re-aggregates the owning job's progress counters.
//	@Tags			Patch Job Targets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Target ID"
//	@Param			body body request.UpdateJobTarget true "Result fields"
//	@Success		200 {object} model.JobTarget
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/patch-job-targets/{id} [put]
func (h *PatchJobTarget) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	targetID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateJobTarget
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := h.svc.UpdateTarget(r.Context(), targetID, core.TargetUpdate{
		Status:               req.Status,
		ExitCode:             req.ExitCode,
		Stdout:               req.Stdout,
		Stderr:               req.Stderr,
		ErrorMessage:         req.ErrorMessage,
		PreCheckPassed:       req.PreCheckPassed,
		PostValidationPassed: req.PostValidationPassed,
		RetryCount:           req.RetryCount,
		ExecutorID:           req.ExecutorID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, target)
}
