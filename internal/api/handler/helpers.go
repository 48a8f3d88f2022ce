package handler

import (
	"errors"
	"net/http"

	"github.com/cypher-grc/cypher/internal/api/response"
	"github.com/cypher-grc/cypher/internal/core"
)

// writeServiceError maps core errors onto HTTP status codes: missing records
// are 404, rejected transitions and unmet dependencies are 409, everything
// else is 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var transition *core.InvalidTransitionError
	var dependency *core.DependencyNotMetError

	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &transition):
		response.WriteError(w, http.StatusConflict, err.Error())
	case errors.As(err, &dependency):
		response.WriteError(w, http.StatusConflict, err.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
