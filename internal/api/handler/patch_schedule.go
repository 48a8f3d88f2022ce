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

type PatchSchedule struct {
	svc        *core.ScheduleService
	conditions *core.ScheduleConditionService
	exclusions *core.ScheduleExclusionService
}

func NewPatchSchedule(services *core.Services) *PatchSchedule {
	return &PatchSchedule{
		svc:        services.Schedule,
		conditions: services.ScheduleCondition,
		exclusions: services.ScheduleExclusion,
	}
}

// Create godoc
//
//	@Summary		Create a patch schedule
//	@Description	Creates a schedule in active state with next_run_time derived from the recurrence spec.
//	@Tags			Patch Schedules
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateSchedule true "Schedule details"
//	@Success		201 {object} model.Schedule
//	@Failure		400 {object} response.ErrorResponse
//	@Router			/patch-schedules [post]
func (h *PatchSchedule) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSchedule
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor := middleware.Actor(r.Context())
	now := time.Now()
	sched := &model.Schedule{
		ID:                platform.NewID(),
		Name:              req.Name,
		Description:       req.Description,
		ScheduleType:      req.ScheduleType,
		Status:            model.ScheduleStatusActive,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		CronExpression:    req.CronExpression,
		Timezone:          stringOr(req.Timezone, "UTC"),
		IntervalMinutes:   req.IntervalMinutes,
		PatchCriteria:     req.PatchCriteria,
		AssetCriteria:     req.AssetCriteria,
		MaxConcurrentJobs: intOr(req.MaxConcurrentJobs, 10),
		ErrorPolicy:       stringOr(req.ErrorPolicy, "continue"),
		MaintenanceWindow: req.MaintenanceWindow,
		RollbackOnFailure: req.RollbackOnFailure,
		IsTemplate:        req.IsTemplate,
		CreatedBy:         &actor,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.svc.Create(r.Context(), sched); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, sched)
}

// List godoc
//
//	@Summary	List patch schedules
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		status query string false "Filter by status"
//	@Param		schedule_type query string false "Filter by schedule type"
//	@Param		limit query int false "Page size" default(50)
//	@Param		cursor query string false "Pagination cursor"
//	@Success	200 {object} response.PaginatedResponse{items=[]model.Schedule}
//	@Router		/patch-schedules [get]
func (h *PatchSchedule) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	filter := core.ScheduleFilter{
		Status:       r.URL.Query().Get("status"),
		ScheduleType: r.URL.Query().Get("schedule_type"),
	}

	schedules, hasMore, err := h.svc.List(r.Context(), filter, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(schedules) > 0 {
		nextCursor = schedules[len(schedules)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, schedules, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary	Get a patch schedule
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Success	200 {object} model.Schedule
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/patch-schedules/{id} [get]
func (h *PatchSchedule) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sched)
}

// Update godoc
//
//	@Summary		Update a patch schedule
//	@Description	Rewrites definition fields and recomputes next_run_time from the new recurrence spec.
//	@Tags			Patch Schedules
//	@Security		ApiKeyAuth
//	@Param			id path string true "Schedule ID"
//	@Param			body body request.UpdateSchedule true "Fields to update"
//	@Success		200 {object} model.Schedule
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/patch-schedules/{id} [put]
func (h *PatchSchedule) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateSchedule
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Name != nil {
		sched.Name = *req.Name
	}
	if req.Description != nil {
		sched.Description = req.Description
	}
	if req.ScheduleType != nil {
		sched.ScheduleType = *req.ScheduleType
	}
	if req.StartDate != nil {
		sched.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		sched.EndDate = req.EndDate
	}
	if req.CronExpression != nil {
		sched.CronExpression = req.CronExpression
	}
	if req.Timezone != nil {
		sched.Timezone = *req.Timezone
	}
	if req.IntervalMinutes != nil {
		sched.IntervalMinutes = req.IntervalMinutes
	}
	if req.PatchCriteria != nil {
		sched.PatchCriteria = req.PatchCriteria
	}
	if req.AssetCriteria != nil {
		sched.AssetCriteria = req.AssetCriteria
	}
	if req.MaxConcurrentJobs != nil {
		sched.MaxConcurrentJobs = *req.MaxConcurrentJobs
	}
	if req.ErrorPolicy != nil {
		sched.ErrorPolicy = *req.ErrorPolicy
	}
	if req.MaintenanceWindow != nil {
		sched.MaintenanceWindow = req.MaintenanceWindow
	}
	if req.RollbackOnFailure != nil {
		sched.RollbackOnFailure = *req.RollbackOnFailure
	}
	if req.IsTemplate != nil {
		sched.IsTemplate = *req.IsTemplate
	}

	if err := h.svc.Update(r.Context(), sched); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sched)
}

// Delete godoc
//
//	@Summary	Delete a patch schedule
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Success	204
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/patch-schedules/{id} [delete]
func (h *PatchSchedule) Delete(w http.ResponseWriter, r *http.Request) {
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

// Activate godoc
//
//	@Summary	Activate a patch schedule
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Success	200 {object} model.Schedule
//	@Router		/patch-schedules/{id}/activate [patch]
func (h *PatchSchedule) Activate(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.svc.Activate)
}

// Pause godoc
//
//	@Summary	Pause a patch schedule
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Success	200 {object} model.Schedule
//	@Router		/patch-schedules/{id}/pause [patch]
func (h *PatchSchedule) Pause(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.svc.Pause)
}

// Disable godoc
//
//	@Summary	Disable a patch schedule
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Success	200 {object} model.Schedule
//	@Router		/patch-schedules/{id}/disable [patch]
func (h *PatchSchedule) Disable(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.svc.Disable)
}

func (h *PatchSchedule) setStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := fn(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	sched, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sched)
}

// Execute godoc
//
//	@Summary		Fire a schedule immediately
//	@Description	Generates one job per matching patch with targets fanned out from the asset criteria, and records the execution.
//	@Tags			Patch Schedules
//	@Security		ApiKeyAuth
//	@Param			id path string true "Schedule ID"
//	@Success		200 {object} model.ScheduleExecution
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/patch-schedules/{id}/execute [post]
func (h *PatchSchedule) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	exec, err := h.svc.ExecuteNow(r.Context(), id, middleware.Actor(r.Context()))
	if err != nil {
		// A failed run is still recorded; surface the execution record when
		// the failure happened during job generation.
		if exec != nil {
			response.WriteJSON(w, http.StatusOK, exec)
			return
		}
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, exec)
}

// ListExecutions godoc
//
//	@Summary	List a schedule's firing history, newest first
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Param		limit query int false "Page size" default(50)
//	@Success	200 {array} model.ScheduleExecution
//	@Router		/patch-schedules/{id}/executions [get]
func (h *PatchSchedule) ListExecutions(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pg := request.ParsePagination(r)
	executions, err := h.svc.ListExecutions(r.Context(), id, pg.Limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, executions)
}

// ListDue godoc
//
//	@Summary		List schedules due for execution
//	@Description	Active, non-template schedules whose next run time has passed and whose end date has not.
//	@Tags			Patch Schedules
//	@Security		ApiKeyAuth
//	@Success		200 {array} model.Schedule
//	@Router			/patch-schedules/due [get]
func (h *PatchSchedule) ListDue(w http.ResponseWriter, r *http.Request) {
	due, err := h.svc.GetDue(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, due)
}

// CreateCondition godoc
//
//	@Summary	Add a pre-condition to a schedule
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Param		body body request.CreateScheduleCondition true "Condition details"
//	@Success	201 {object} model.ScheduleCondition
//	@Router		/patch-schedules/{id}/conditions [post]
func (h *PatchSchedule) CreateCondition(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateScheduleCondition
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cond := &model.ScheduleCondition{
		ID:            platform.NewID(),
		ScheduleID:    scheduleID,
		ConditionType: req.ConditionType,
		Operator:      req.Operator,
		Value:         req.Value,
		Required:      req.Required,
		CreatedAt:     time.Now(),
	}
	if err := h.conditions.Create(r.Context(), cond); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, cond)
}

// ListConditions godoc
//
//	@Summary	List a schedule's pre-conditions
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Success	200 {array} model.ScheduleCondition
//	@Router		/patch-schedules/{id}/conditions [get]
func (h *PatchSchedule) ListConditions(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conds, err := h.conditions.ListBySchedule(r.Context(), scheduleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, conds)
}

// DeleteCondition godoc
//
//	@Summary	Remove a schedule pre-condition
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Condition ID"
//	@Success	204
//	@Router		/schedule-conditions/{id} [delete]
func (h *PatchSchedule) DeleteCondition(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.conditions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateExclusion godoc
//
//	@Summary	Add an exclusion window or excluded asset to a schedule
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Param		body body request.CreateScheduleExclusion true "Exclusion details"
//	@Success	201 {object} model.ScheduleExclusion
//	@Router		/patch-schedules/{id}/exclusions [post]
func (h *PatchSchedule) CreateExclusion(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateScheduleExclusion
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	excl := &model.ScheduleExclusion{
		ID:            platform.NewID(),
		ScheduleID:    scheduleID,
		ExclusionType: req.ExclusionType,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		AssetID:       req.AssetID,
		Reason:        req.Reason,
		CreatedAt:     time.Now(),
	}
	if err := h.exclusions.Create(r.Context(), excl); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, excl)
}

// ListExclusions godoc
//
//	@Summary	List a schedule's exclusions
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Schedule ID"
//	@Success	200 {array} model.ScheduleExclusion
//	@Router		/patch-schedules/{id}/exclusions [get]
func (h *PatchSchedule) ListExclusions(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	excls, err := h.exclusions.ListBySchedule(r.Context(), scheduleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, excls)
}

// DeleteExclusion godoc
//
//	@Summary	Remove a schedule exclusion
//	@Tags		Patch Schedules
//	@Security	ApiKeyAuth
//	@Param		id path string true "Exclusion ID"
//	@Success	204
//	@Router		/schedule-exclusions/{id} [delete]
func (h *PatchSchedule) DeleteExclusion(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.exclusions.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}
