package classifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/ctrd/internal/domain/classifier"
	"github.com/okian/ctrd/internal/domain/feature"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// makeSamples emits count copies of one labeled context.
func makeSamples(lineItem int, device, country string, publisher, hour, day, clicked, count int) []model.TrainingSample {
	s := model.TrainingSample{
		LineItemID:  lineItem,
		DeviceType:  device,
		Country:     country,
		PublisherID: publisher,
		HourOfDay:   hour,
		DayOfWeek:   day,
		Clicked:     clicked,
	}
	out := make([]model.TrainingSample, count)
	for i := range out {
		out[i] = s
	}
	return out
}

// separableSamples builds a set where mobile/US clicks and desktop/UK does not.
func separableSamples() []model.TrainingSample {
	var samples []model.TrainingSample
	samples = append(samples, makeSamples(100001, "mobile", "US", 1, 20, 5, 1, 100)...)
	samples = append(samples, makeSamples(100001, "mobile", "US", 1, 20, 5, 0, 100)...)
	samples = append(samples, makeSamples(100001, "desktop", "UK", 2, 10, 1, 0, 300)...)
	return samples
}

func TestTrain(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given no training samples", t, func() {
		trainer := classifier.New()

		Convey("When training", func() {
			bundle, report, err := trainer.Train(ctx, nil)

			Convey("Then it fails fast with ErrNoTrainingData", func() {
				So(errors.Is(err, classifier.ErrNoTrainingData), ShouldBeTrue)
				So(bundle, ShouldBeNil)
				So(report.TrainSamples, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a separable two-context sample set", t, func() {
		trainer := classifier.New()
		samples := separableSamples()

		Convey("When training", func() {
			bundle, report, err := trainer.Train(ctx, samples)

			Convey("Then a complete bundle is produced", func() {
				So(err, ShouldBeNil)
				So(bundle, ShouldNotBeNil)
				So(bundle.Model, ShouldNotBeNil)
				So(bundle.Scaler, ShouldNotBeNil)
				So(bundle.SampleCount, ShouldEqual, len(samples))
				So(bundle.TrainedAt.IsZero(), ShouldBeFalse)
				for _, field := range feature.CategoricalFields() {
					So(bundle.Codebooks[field], ShouldNotBeNil)
				}
			})

			Convey("Then the split holds out twenty percent of each class", func() {
				So(err, ShouldBeNil)
				So(report.TestSamples, ShouldEqual, 100) // 20% of 500
				So(report.TrainSamples, ShouldEqual, 400)
			})

			Convey("Then the model separates the contexts", func() {
				So(err, ShouldBeNil)
				So(report.AUC, ShouldBeGreaterThan, 0.6)
				So(report.Accuracy, ShouldBeGreaterThan, 0.6)
				So(report.Accuracy, ShouldBeLessThanOrEqualTo, 1.0)

				clicky := feature.Vector(model.PredictionContext{
					LineItemID: 100001, DeviceType: "mobile", Country: "US",
					PublisherID: 1, HourOfDay: 20, DayOfWeek: 5,
				}, bundle.Codebooks)
				quiet := feature.Vector(model.PredictionContext{
					LineItemID: 100001, DeviceType: "desktop", Country: "UK",
					PublisherID: 2, HourOfDay: 10, DayOfWeek: 1,
				}, bundle.Codebooks)

				pClicky, err := bundle.Model.PredictProba(bundle.Scaler.Transform(clicky))
				So(err, ShouldBeNil)
				pQuiet, err := bundle.Model.PredictProba(bundle.Scaler.Transform(quiet))
				So(err, ShouldBeNil)
				So(pClicky, ShouldBeGreaterThan, pQuiet)
			})
		})

		Convey("When training twice with the same seed", func() {
			first, _, err1 := trainer.Train(ctx, samples)
			second, _, err2 := trainer.Train(ctx, samples)

			Convey("Then the fitted weights are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Model.Weights, ShouldResemble, second.Model.Weights)
				So(first.Model.Bias, ShouldEqual, second.Model.Bias)
			})
		})
	})

	Convey("Given a single-class sample set", t, func() {
		trainer := classifier.New()
		samples := makeSamples(100003, "mobile", "CA", 3, 12, 2, 0, 50)

		Convey("When training", func() {
			bundle, report, err := trainer.Train(ctx, samples)

			Convey("Then training still succeeds with the conventional AUC", func() {
				So(err, ShouldBeNil)
				So(bundle, ShouldNotBeNil)
				So(report.AUC, ShouldEqual, 0.5)
			})
		})
	})
}

func TestScaler(t *testing.T) {
	Convey("Given vectors with a constant and a varying column", t, func() {
		vectors := [][]float64{
			{1, 2},
			{1, 4},
			{1, 6},
		}
		scaler := classifier.FitScaler(vectors)

		Convey("When transforming", func() {
			out := scaler.Transform([]float64{1, 4})

			Convey("Then the varying column is centered and the constant one survives", func() {
				So(scaler.Dims(), ShouldEqual, 2)
				So(out[0], ShouldEqual, 0) // zero variance keeps scale 1
				So(out[1], ShouldEqual, 0) // at the mean
			})

			Convey("Then the input slice is not mutated", func() {
				in := []float64{1, 6}
				_ = scaler.Transform(in)
				So(in[1], ShouldEqual, 6)
			})
		})
	})
}

func TestPredictProba(t *testing.T) {
	Convey("Given a fitted model shape", t, func() {
		m := &classifier.Model{Weights: []float64{1, -1}, Bias: 0}

		Convey("When scoring a matching vector", func() {
			p, err := m.PredictProba([]float64{0, 0})

			Convey("Then the probability is well-formed", func() {
				So(err, ShouldBeNil)
				So(p, ShouldEqual, 0.5)
			})
		})

		Convey("When scoring a mismatched vector", func() {
			_, err := m.PredictProba([]float64{1, 2, 3})

			Convey("Then it reports the dimension mismatch", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
