// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/ctrd/internal/app"
	"github.com/okian/ctrd/internal/domain/model"
)

// Context field bounds.
const (
	maxHourOfDay = 23
	maxDayOfWeek = 6
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Predict scores one placement context.
	Predict(ctx context.Context, pc model.PredictionContext) (model.Prediction, error)

	// Boost maps a CTR score to the bounded bid multiplier.
	Boost(ctrScore float64) float64

	// Train runs one exclusive training cycle over the recent event window.
	Train(ctx context.Context, daysBack, minImpressions int) (service.TrainingReport, error)

	// Status reports on the currently loaded bundle.
	Status() service.ModelStatus
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	predictHandler   *PredictHandler
	trainHandler     *TrainHandler
	modelInfoHandler *ModelInfoHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		predictHandler:   NewPredictHandler(deps),
		trainHandler:     NewTrainHandler(deps),
		modelInfoHandler: NewModelInfoHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/train", MetricsMiddleware(s.trainHandler.HandleTrain, "train"))
	mux.HandleFunc("/model-info", MetricsMiddleware(s.modelInfoHandler.HandleModelInfo, "model_info"))
}

// predictionRequest mirrors the OpenAPI schema for POST /predict.
type predictionRequest struct {
	LineItemID  int    `json:"line_item_id"`
	DeviceType  string `json:"device_type"`
	Country     string `json:"country"`
	HourOfDay   int    `json:"hour_of_day"`
	DayOfWeek   int    `json:"day_of_week"`
	PublisherID *int   `json:"publisher_id,omitempty"`
}

func (p predictionRequest) validate() error {
	switch {
	case p.LineItemID <= 0:
		return errors.New("missing line_item_id")
	case p.DeviceType == "":
		return errors.New("missing device_type")
	case p.Country == "":
		return errors.New("missing country")
	case p.HourOfDay < 0 || p.HourOfDay > maxHourOfDay:
		return errors.New("hour_of_day must be in [0, 23]")
	case p.DayOfWeek < 0 || p.DayOfWeek > maxDayOfWeek:
		return errors.New("day_of_week must be in [0, 6]")
	}
	return nil
}

// context converts the request into the domain form, normalizing an absent
// publisher to the integer sentinel 0.
func (p predictionRequest) context() model.PredictionContext {
	publisherID := 0
	if p.PublisherID != nil {
		publisherID = *p.PublisherID
	}
	return model.PredictionContext{
		LineItemID:  p.LineItemID,
		DeviceType:  p.DeviceType,
		Country:     p.Country,
		PublisherID: publisherID,
		HourOfDay:   p.HourOfDay,
		DayOfWeek:   p.DayOfWeek,
	}
}

// predictionResponse mirrors the response schema consumed by the ad server.
type predictionResponse struct {
	LineItemID      int     `json:"line_item_id"`
	CTRScore        float64 `json:"ctr_score"`
	Confidence      float64 `json:"confidence"`
	BoostMultiplier float64 `json:"boost_multiplier"`
	Degraded        bool    `json:"degraded,omitempty"`
}

// trainingRequest mirrors the OpenAPI schema for POST /train.
type trainingRequest struct {
	DaysBack       int `json:"days_back"`
	MinImpressions int `json:"min_impressions"`
}

// trainingResponse summarizes a completed training run.
type trainingResponse struct {
	Status         string  `json:"status"`
	SamplesTrained int     `json:"samples_trained"`
	ModelAccuracy  float64 `json:"model_accuracy"`
	AUCScore       float64 `json:"auc_score"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
