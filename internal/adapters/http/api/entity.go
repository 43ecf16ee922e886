package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	service "github.com/sristy17/insider-Threat-Detection/internal/app"
)

// EntityDependencies defines the interface for single-employee reads.
type EntityDependencies interface {
	Entity(ctx context.Context, employeeID string) (service.EntityDetail, error)
}

// EntityHandler handles per-employee detail requests.
type EntityHandler struct {
	deps EntityDependencies
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps EntityDependencies) *EntityHandler {
	return &EntityHandler{deps: deps}
}

// HandleGetEntity handles GET /entity/{employee_id} requests.
func (h *EntityHandler) HandleGetEntity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/entity/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing employee id"))
		return
	}

	detail, err := h.deps.Entity(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
