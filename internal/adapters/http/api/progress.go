package api

import (
	"context"
	"net/http"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

// ProgressDependencies defines the interface for batch progress reads.
type ProgressDependencies interface {
	Progress(ctx context.Context) []model.BatchProgress
	Done(ctx context.Context) bool
}

// ProgressHandler handles batch progress requests.
type ProgressHandler struct {
	deps ProgressDependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps ProgressDependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

type progressResponse struct {
	Done    bool                  `json:"done"`
	Batches []model.BatchProgress `json:"batches"`
}

// HandleProgress handles GET /progress requests: the full batch history
// plus whether every expected batch has completed.
func (h *ProgressHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	batches := h.deps.Progress(r.Context())
	if batches == nil {
		batches = []model.BatchProgress{}
	}
	writeJSON(w, http.StatusOK, progressResponse{
		Done:    h.deps.Done(r.Context()),
		Batches: batches,
	})
}
