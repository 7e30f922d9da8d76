package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/ctrd/internal/adapters/eventstore"
	"github.com/okian/ctrd/internal/adapters/http/api"
	service "github.com/okian/ctrd/internal/app"
	"github.com/okian/ctrd/internal/domain/classifier"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/internal/domain/predict"
	"github.com/okian/ctrd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps implements api.Dependencies and api.StatsProvider for handler tests.
type stubDeps struct {
	prediction  model.Prediction
	predictErr  error
	lastContext model.PredictionContext
	report      service.TrainingReport
	trainErr    error
	status      service.ModelStatus
	stats       map[string]interface{}
}

func (s *stubDeps) Predict(_ context.Context, pc model.PredictionContext) (model.Prediction, error) {
	s.lastContext = pc
	return s.prediction, s.predictErr
}

func (s *stubDeps) Boost(ctrScore float64) float64 {
	b := predict.NewBooster()
	return b.Boost(ctrScore)
}

func (s *stubDeps) Train(_ context.Context, _, _ int) (service.TrainingReport, error) {
	return s.report, s.trainErr
}

func (s *stubDeps) Status() service.ModelStatus {
	return s.status
}

func (s *stubDeps) GetStats() map[string]interface{} {
	return s.stats
}

func newMux(deps *stubDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return mux
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandlePredict(t *testing.T) {
	_ = logger.Init()

	Convey("Given a service with a loaded model", t, func() {
		deps := &stubDeps{prediction: model.Prediction{CTRScore: 0.02, Confidence: 0.98}}
		mux := newMux(deps)

		Convey("When posting a valid prediction request", func() {
			w := doJSON(mux, http.MethodPost, "/predict",
				`{"line_item_id":100001,"device_type":"mobile","country":"US","hour_of_day":20,"day_of_week":5,"publisher_id":1}`)

			Convey("Then the response carries score, confidence, and boost", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["line_item_id"], ShouldEqual, 100001)
				So(resp["ctr_score"], ShouldEqual, 0.02)
				So(resp["confidence"], ShouldEqual, 0.98)
				So(resp["boost_multiplier"], ShouldEqual, 2.0)
			})
		})

		Convey("When the publisher is omitted", func() {
			w := doJSON(mux, http.MethodPost, "/predict",
				`{"line_item_id":100001,"device_type":"mobile","country":"US","hour_of_day":20,"day_of_week":5}`)

			Convey("Then it normalizes to the zero sentinel", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastContext.PublisherID, ShouldEqual, 0)
			})
		})

		Convey("When required fields are missing", func() {
			w := doJSON(mux, http.MethodPost, "/predict",
				`{"line_item_id":100001,"country":"US","hour_of_day":20,"day_of_week":5}`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "device_type")
			})
		})

		Convey("When hour_of_day is out of range", func() {
			w := doJSON(mux, http.MethodPost, "/predict",
				`{"line_item_id":100001,"device_type":"mobile","country":"US","hour_of_day":24,"day_of_week":5}`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "hour_of_day")
			})
		})

		Convey("When day_of_week is out of range", func() {
			w := doJSON(mux, http.MethodPost, "/predict",
				`{"line_item_id":100001,"device_type":"mobile","country":"US","hour_of_day":12,"day_of_week":7}`)

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			w := doJSON(mux, http.MethodPost, "/predict", "not-json")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When using the wrong method", func() {
			w := doJSON(mux, http.MethodGet, "/predict", "")

			Convey("Then the route does not match", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})

	Convey("Given a service with no model loaded", t, func() {
		deps := &stubDeps{predictErr: predict.ErrModelUnavailable}
		mux := newMux(deps)

		Convey("When posting a valid prediction request", func() {
			w := doJSON(mux, http.MethodPost, "/predict",
				`{"line_item_id":100001,"device_type":"mobile","country":"US","hour_of_day":20,"day_of_week":5}`)

			Convey("Then the handler refuses with 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, "model_unavailable")
			})
		})
	})
}

func TestHandleTrain(t *testing.T) {
	_ = logger.Init()

	Convey("Given a service that trains successfully", t, func() {
		deps := &stubDeps{report: service.TrainingReport{SamplesTrained: 480, Accuracy: 0.91, AUC: 0.84}}
		mux := newMux(deps)

		Convey("When posting a training request", func() {
			w := doJSON(mux, http.MethodPost, "/train", `{"days_back":7,"min_impressions":100}`)

			Convey("Then the run summary is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "success")
				So(resp["samples_trained"], ShouldEqual, 480)
				So(resp["model_accuracy"], ShouldEqual, 0.91)
				So(resp["auc_score"], ShouldEqual, 0.84)
			})
		})

		Convey("When posting an empty body", func() {
			w := doJSON(mux, http.MethodPost, "/train", "")

			Convey("Then defaults are used and training proceeds", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})

	Convey("Given a window with no usable data", t, func() {
		deps := &stubDeps{trainErr: classifier.ErrNoTrainingData}
		mux := newMux(deps)

		Convey("When posting a training request", func() {
			w := doJSON(mux, http.MethodPost, "/train", `{}`)

			Convey("Then the handler rejects with 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "no_training_data")
			})
		})
	})

	Convey("Given an unreachable event store", t, func() {
		deps := &stubDeps{trainErr: eventstore.ErrQueryFailed}
		mux := newMux(deps)

		Convey("When posting a training request", func() {
			w := doJSON(mux, http.MethodPost, "/train", `{}`)

			Convey("Then the failure maps to 502", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(w.Body.String(), ShouldContainSubstring, "event_store_failure")
			})
		})
	})
}

func TestHandleModelInfo(t *testing.T) {
	_ = logger.Init()

	Convey("Given a loaded model", t, func() {
		trainedAt := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
		deps := &stubDeps{status: service.ModelStatus{
			Loaded:       true,
			FeatureCount: 9,
			Labels:       []int{0, 1},
			TrainedAt:    trainedAt,
			SampleCount:  480,
		}}
		mux := newMux(deps)

		Convey("When fetching model info", func() {
			w := doJSON(mux, http.MethodGet, "/model-info", "")

			Convey("Then the full status is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["loaded"], ShouldBeTrue)
				So(resp["feature_count"], ShouldEqual, 9)
				So(resp["sample_count"], ShouldEqual, 480)
				So(resp["trained_at"], ShouldEqual, "2026-08-27T09:30:00Z")
			})
		})
	})

	Convey("Given no model loaded", t, func() {
		deps := &stubDeps{}
		mux := newMux(deps)

		Convey("When fetching model info", func() {
			w := doJSON(mux, http.MethodGet, "/model-info", "")

			Convey("Then only the loaded flag is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["loaded"], ShouldBeFalse)
				So(resp, ShouldNotContainKey, "feature_count")
			})
		})
	})
}

func TestHandleStats(t *testing.T) {
	_ = logger.Init()

	Convey("Given a stats provider", t, func() {
		deps := &stubDeps{stats: map[string]interface{}{"started": true, "cacheEntries": 3}}
		mux := newMux(deps)

		Convey("When fetching stats", func() {
			w := doJSON(mux, http.MethodGet, "/stats", "")

			Convey("Then the snapshot is returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["started"], ShouldBeTrue)
				So(resp["cacheEntries"], ShouldEqual, 3)
			})
		})
	})
}

func TestHandleHealth(t *testing.T) {
	_ = logger.Init()

	Convey("Given the registered routes", t, func() {
		mux := newMux(&stubDeps{})

		Convey("When scraping /healthz", func() {
			w := doJSON(mux, http.MethodGet, "/healthz", "")

			Convey("Then the Prometheus exposition is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "ctrd_")
			})
		})
	})
}
