package seedevents

import (
	"context"
	"testing"
	"time"

	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerateEvents(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a small seeding configuration", t, func() {
		config := &Config{Days: 2, ImpressionsPerDay: 500}
		stats := &Stats{}

		Convey("When generating events", func() {
			events, err := generateEvents(ctx, config, stats)

			Convey("Then the impression count matches the configuration", func() {
				So(err, ShouldBeNil)
				So(stats.Impressions, ShouldEqual, 1000)
				So(len(events), ShouldEqual, stats.Impressions+stats.Clicks)
			})

			Convey("Then clicks land in a plausible band around the CTR table", func() {
				So(err, ShouldBeNil)
				So(stats.Clicks, ShouldBeGreaterThan, 0)
				// Overall CTR across the table averages roughly 3%; allow slack
				// for the small sample.
				So(stats.Clicks, ShouldBeLessThan, stats.Impressions/5)
			})

			Convey("Then every event carries a complete, known context", func() {
				So(err, ShouldBeNil)
				for _, e := range events {
					So(e.LineItemID, ShouldBeIn, 100001, 100002, 100003)
					So(e.DeviceType, ShouldBeIn, "mobile", "desktop")
					So(e.Country, ShouldBeIn, "US", "UK", "CA")
					So(e.PublisherID, ShouldBeIn, 1, 2, 3)
					So(e.EventType, ShouldBeIn, model.EventTypeImpression, model.EventTypeClick)
				}
			})

			Convey("Then timestamps stay inside the requested window", func() {
				So(err, ShouldBeNil)
				now := time.Now().UTC().Add(time.Minute)
				floor := now.AddDate(0, 0, -(config.Days + 1))
				for _, e := range events {
					So(e.Timestamp.After(floor), ShouldBeTrue)
					So(e.Timestamp.Before(now.Add(time.Minute)), ShouldBeTrue)
				}
			})
		})
	})
}
