package predict_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/ctrd/internal/domain/classifier"
	"github.com/okian/ctrd/internal/domain/feature"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/internal/domain/predict"
	"github.com/okian/ctrd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// testBundle builds a small but complete bundle without running training.
func testBundle() *classifier.Bundle {
	codebooks := map[string]*feature.Codebook{
		feature.FieldLineItemID:  feature.Fit([]string{"100001", "100002"}),
		feature.FieldDeviceType:  feature.Fit([]string{"desktop", "mobile"}),
		feature.FieldCountry:     feature.Fit([]string{"UK", "US"}),
		feature.FieldPublisherID: feature.Fit([]string{"1", "2"}),
	}
	vectors := [][]float64{
		feature.Vector(model.PredictionContext{LineItemID: 100001, DeviceType: "mobile", Country: "US", PublisherID: 1, HourOfDay: 20, DayOfWeek: 5}, codebooks),
		feature.Vector(model.PredictionContext{LineItemID: 100002, DeviceType: "desktop", Country: "UK", PublisherID: 2, HourOfDay: 10, DayOfWeek: 1}, codebooks),
	}
	return &classifier.Bundle{
		Model:     &classifier.Model{Weights: make([]float64, feature.VectorSize), Bias: -3},
		Scaler:    classifier.FitScaler(vectors),
		Codebooks: codebooks,
	}
}

func sampleContext() model.PredictionContext {
	return model.PredictionContext{
		LineItemID:  100001,
		DeviceType:  "mobile",
		Country:     "US",
		PublisherID: 1,
		HourOfDay:   20,
		DayOfWeek:   5,
	}
}

func TestScorer(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a scorer with no bundle loaded", t, func() {
		s := predict.NewScorer()

		Convey("When predicting", func() {
			_, err := s.Predict(ctx, sampleContext())

			Convey("Then it fails closed with ErrModelUnavailable", func() {
				So(errors.Is(err, predict.ErrModelUnavailable), ShouldBeTrue)
				So(s.Loaded(), ShouldBeFalse)
			})
		})
	})

	Convey("Given a scorer with a loaded bundle", t, func() {
		s := predict.NewScorer(predict.WithCache(predict.NewCache(predict.WithMaxSize(10))))
		s.SwapBundle(testBundle())

		Convey("When predicting the same context twice", func() {
			first, err1 := s.Predict(ctx, sampleContext())
			second, err2 := s.Predict(ctx, sampleContext())

			Convey("Then the second result comes from the cache", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Cached, ShouldBeFalse)
				So(second.Cached, ShouldBeTrue)
				So(second.CTRScore, ShouldEqual, first.CTRScore)
				So(s.CacheLen(), ShouldEqual, 1)
			})

			Convey("Then the score is a probability with matching confidence", func() {
				So(first.CTRScore, ShouldBeGreaterThan, 0)
				So(first.CTRScore, ShouldBeLessThan, 1)
				So(first.Confidence, ShouldBeGreaterThanOrEqualTo, 0.5)
				So(first.Degraded, ShouldBeFalse)
			})
		})

		Convey("When a new bundle is swapped in after a cached prediction", func() {
			before, _ := s.Predict(ctx, sampleContext())
			fresh := testBundle()
			fresh.Model.Bias = 3
			s.SwapBundle(fresh)
			after, err := s.Predict(ctx, sampleContext())

			Convey("Then the stale cached score keeps serving", func() {
				So(err, ShouldBeNil)
				So(after.Cached, ShouldBeTrue)
				So(after.CTRScore, ShouldEqual, before.CTRScore)
			})
		})
	})

	Convey("Given a bundle whose scaler does not match the feature width", t, func() {
		s := predict.NewScorer()
		b := testBundle()
		b.Scaler = classifier.FitScaler([][]float64{{1, 2}, {3, 4}})
		s.SwapBundle(b)

		Convey("When predicting", func() {
			p, err := s.Predict(ctx, sampleContext())

			Convey("Then the degraded default is served instead of an error", func() {
				So(err, ShouldBeNil)
				So(p.Degraded, ShouldBeTrue)
				So(p.CTRScore, ShouldEqual, predict.DegradedCTRScore)
				So(p.Confidence, ShouldEqual, predict.DegradedConfidence)
			})
		})
	})

	Convey("Given a bundle missing its model", t, func() {
		s := predict.NewScorer()
		b := testBundle()
		b.Model = nil
		s.SwapBundle(b)

		Convey("When predicting", func() {
			p, err := s.Predict(ctx, sampleContext())

			Convey("Then the incomplete bundle degrades rather than fails", func() {
				So(err, ShouldBeNil)
				So(p.Degraded, ShouldBeTrue)
			})
		})
	})
}
