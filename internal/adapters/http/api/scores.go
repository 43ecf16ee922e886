package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

const defaultScoresLimit = 10

// ScoresDependencies defines the interface for ranking reads.
type ScoresDependencies interface {
	TopN(ctx context.Context, n int) ([]model.Entry, error)
}

// ScoresHandler handles ranked score requests.
type ScoresHandler struct {
	deps     ScoresDependencies
	maxLimit int
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies, maxLimit int) *ScoresHandler {
	return &ScoresHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetScores handles GET /scores?limit=N requests. The limit defaults
// to ten and is capped by the configured maximum.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := defaultScoresLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("limit must be a positive integer"))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", errors.New("limit exceeds configured maximum"))
		return
	}

	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidLimit) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
