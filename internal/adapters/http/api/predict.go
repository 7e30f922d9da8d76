// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/ctrd/internal/domain/predict"
)

// PredictHandler handles CTR prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// HandlePredict handles POST /predict requests.
//
// The response always carries the boost multiplier alongside the raw score,
// so the caller never has to apply the baseline translation itself.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("predict", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("predict", ErrBadRequest, err))
		return
	}

	p, err := h.deps.Predict(r.Context(), req.context())
	if err != nil {
		// No model yet: refuse explicitly rather than guess a score.
		if errors.Is(err, predict.ErrModelUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "model_unavailable", NewKind("predict", ErrModelUnavailable))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, predictionResponse{
		LineItemID:      req.LineItemID,
		CTRScore:        p.CTRScore,
		Confidence:      p.Confidence,
		BoostMultiplier: h.deps.Boost(p.CTRScore),
		Degraded:        p.Degraded,
	})
}
