package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cypher-grc/cypher/internal/api/request"
	"github.com/cypher-grc/cypher/internal/api/response"
	"github.com/cypher-grc/cypher/internal/core"
	"github.com/cypher-grc/cypher/internal/model"
	"github.com/cypher-grc/cypher/internal/platform"
)

type PatchJobDependency struct {
	svc *core.JobDependencyService
}

func NewPatchJobDependency(services *core.Services) *PatchJobDependency {
	return &PatchJobDependency{svc: services.JobDependency}
}

// Create godoc
//
//	@Summary	Add a depends-on edge between two jobs
//	@Tags		Patch Job Dependencies
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Param		body body request.CreateJobDependency true "Dependency details"
//	@Success	201 {object} model.JobDependency
//	@Failure	400 {object} response.ErrorResponse
//	@Router		/patch-jobs/{id}/dependencies [post]
func (h *PatchJobDependency) Create(w http.ResponseWriter, r *http.Request) {
	jobID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateJobDependency
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DependsOnJobID == jobID {
		response.WriteError(w, http.StatusBadRequest, "a job cannot depend on itself")
		return
	}

	dep := &model.JobDependency{
		ID:             platform.NewID(),
		JobID:          jobID,
		DependsOnJobID: req.DependsOnJobID,
		DependencyType: stringOr(req.DependencyType, "completion"),
		Optional:       req.Optional,
		FailureAction:  stringOr(req.FailureAction, model.FailureActionBlock),
		CreatedAt:      time.Now(),
	}
	if err := h.svc.Create(r.Context(), dep); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, dep)
}

// List godoc
//
//	@Summary	List a job's dependencies with prerequisite statuses
//	@Tags		Patch Job Dependencies
//	@Security	ApiKeyAuth
//	@Param		id path string true "Job ID"
//	@Success	200 {array} model.JobDependencyStatus
//	@Router		/patch-jobs/{id}/dependencies [get]
func (h *PatchJobDependency) List(w http.ResponseWriter, r *http.Request) {
	jobID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	deps, err := h.svc.ListByJob(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, deps)
}

// Delete godoc
//
//	@Summary	Remove a dependency edge
//	@Tags		Patch Job Dependencies
//	@Security	ApiKeyAuth
//	@Param		id path string true "Dependency ID"
//	@Success	204
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/patch-job-dependencies/{id} [delete]
func (h *PatchJobDependency) Delete(w http.ResponseWriter, r *http.Request) {
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

// CanStart godoc
//
//	@Summary		Check whether a job's prerequisites are satisfied
//	@Description	Advisory inspection; Start runs the same evaluation before transitioning.
//	@Tags			Patch Job Dependencies
//	@Security		ApiKeyAuth
//	@Param			id path string true "Job ID"
//	@Success		200 {object} core.StartCheck
//	@Router			/patch-jobs/{id}/can-start [get]
func (h *PatchJobDependency) CanStart(w http.ResponseWriter, r *http.Request) {
	jobID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	check, err := h.svc.CanStart(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, check)
}
