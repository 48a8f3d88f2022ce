package handler

import (
	"net/http"

	"github.com/cypher-grc/cypher/internal/api/response"
	"github.com/cypher-grc/cypher/internal/core"
)

type Analytics struct {
	svc *core.AnalyticsService
}

func NewAnalytics(services *core.Services) *Analytics {
	return &Analytics{svc: services.Analytics}
}

// Jobs godoc
//
//	@Summary	Aggregate patch job counts and success ratio
//	@Tags		Analytics
//	@Security	ApiKeyAuth
//	@Success	200 {object} core.JobAnalytics
//	@Failure	500 {object} response.ErrorResponse
//	@Router		/analytics/patch-jobs [get]
func (h *Analytics) Jobs(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.JobAnalytics(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, a)
}

// Schedules godoc
//
//	@Summary	Aggregate schedule counts and run statistics
//	@Tags		Analytics
//	@Security	ApiKeyAuth
//	@Success	200 {object} core.ScheduleAnalytics
//	@Failure	500 {object} response.ErrorResponse
//	@Router		/analytics/patch-schedules [get]
func (h *Analytics) Schedules(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.ScheduleAnalytics(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, a)
}
