// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/ctrd/internal/adapters/eventstore"
	"github.com/okian/ctrd/internal/domain/classifier"
)

// TrainHandler handles model training requests.
type TrainHandler struct {
	deps Dependencies
}

// NewTrainHandler creates a new train handler.
func NewTrainHandler(deps Dependencies) *TrainHandler {
	return &TrainHandler{deps: deps}
}

// HandleTrain handles POST /train requests. An empty body is allowed and
// falls back to the configured training defaults.
func (h *TrainHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req trainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("train", ErrBadRequest, err))
		return
	}

	report, err := h.deps.Train(r.Context(), req.DaysBack, req.MinImpressions)
	if err != nil {
		switch {
		case errors.Is(err, classifier.ErrNoTrainingData):
			writeError(w, http.StatusBadRequest, "no_training_data", NewKind("train", ErrNoTrainingData))
		case errors.Is(err, eventstore.ErrQueryFailed):
			writeError(w, http.StatusBadGateway, "event_store_failure", WrapKind("train", ErrUpstream, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, trainingResponse{
		Status:         "success",
		SamplesTrained: report.SamplesTrained,
		ModelAccuracy:  report.Accuracy,
		AUCScore:       report.AUC,
	})
}
