package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cypher-grc/cypher/internal/api/request"
	"github.com/cypher-grc/cypher/internal/api/response"
	"github.com/cypher-grc/cypher/internal/core"
	"github.com/cypher-grc/cypher/internal/model"
)

type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(services *core.Services) *APIKey {
	return &APIKey{svc: services.APIKey}
}

type createdAPIKey struct {
	model.APIKey
	// Key is the raw key value, returned exactly once at creation.
	Key string `json:"key"`
}

// Create godoc
//
//	@Summary		Create an API key
//	@Description	The raw key is returned once in the response and never stored.
//	@Tags			API Keys
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateAPIKey true "Key name"
//	@Success		201 {object} model.APIKey
//	@Router			/api-keys [post]
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, createdAPIKey{APIKey: *key, Key: rawKey})
}

// List godoc
//
//	@Summary	List API keys
//	@Tags		API Keys
//	@Security	ApiKeyAuth
//	@Param		limit query int false "Page size" default(50)
//	@Param		cursor query string false "Pagination cursor"
//	@Success	200 {object} response.PaginatedResponse{items=[]model.APIKey}
//	@Router		/api-keys [get]
func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	keys, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(keys) > 0 {
		nextCursor = keys[len(keys)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, keys, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary	Get an API key
//	@Tags		API Keys
//	@Security	ApiKeyAuth
//	@Param		id path string true "Key ID"
//	@Success	200 {object} model.APIKey
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/api-keys/{id} [get]
func (h *APIKey) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, key)
}

// Revoke godoc
//
//	@Summary	Revoke an API key
//	@Tags		API Keys
//	@Security	ApiKeyAuth
//	@Param		id path string true "Key ID"
//	@Success	204
//	@Failure	404 {object} response.ErrorResponse
//	@Router		/api-keys/{id} [delete]
func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
