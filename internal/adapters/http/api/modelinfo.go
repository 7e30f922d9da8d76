// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// ModelInfoHandler handles model introspection requests.
type ModelInfoHandler struct {
	deps Dependencies
}

// NewModelInfoHandler creates a new model info handler.
func NewModelInfoHandler(deps Dependencies) *ModelInfoHandler {
	return &ModelInfoHandler{deps: deps}
}

// modelInfoResponse mirrors the OpenAPI schema for GET /model-info.
type modelInfoResponse struct {
	Loaded       bool   `json:"loaded"`
	FeatureCount int    `json:"feature_count,omitempty"`
	Labels       []int  `json:"labels,omitempty"`
	TrainedAt    string `json:"trained_at,omitempty"`
	SampleCount  int    `json:"sample_count,omitempty"`
}

// HandleModelInfo handles GET /model-info requests.
func (h *ModelInfoHandler) HandleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	status := h.deps.Status()
	if !status.Loaded {
		writeJSON(w, http.StatusOK, modelInfoResponse{Loaded: false})
		return
	}

	writeJSON(w, http.StatusOK, modelInfoResponse{
		Loaded:       true,
		FeatureCount: status.FeatureCount,
		Labels:       status.Labels,
		TrainedAt:    status.TrainedAt.Format(time.RFC3339),
		SampleCount:  status.SampleCount,
	})
}
