package seedevents

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	secondsPerDay      = 86400
	maxClickDelay      = 30
)

// deviceCountry keys the base click-through rate table.
type deviceCountry struct {
	device  string
	country string
}

// Base CTR by device and country. Unlisted combinations fall back to
// defaultCTR. The spread gives the trained model a real signal to recover.
var baseCTR = map[deviceCountry]float64{
	{"mobile", "US"}:  0.045,
	{"mobile", "UK"}:  0.038,
	{"mobile", "CA"}:  0.042,
	{"desktop", "US"}: 0.022,
	{"desktop", "UK"}: 0.019,
	{"desktop", "CA"}: 0.021,
}

const defaultCTR = 0.02

var (
	devices    = []string{"mobile", "desktop"}
	countries  = []string{"US", "UK", "CA"}
	publishers = []int{1, 2, 3}
	lineItems  = []int{100001, 100002, 100003}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pickInt returns a uniformly random element of vals.
func pickInt(vals []int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(vals))))
	return vals[n.Int64()]
}

// pickString returns a uniformly random element of vals.
func pickString(vals []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(vals))))
	return vals[n.Int64()]
}

// generateEvents produces Days worth of impression events, each followed by
// a click with probability taken from the base CTR table. Timestamps spread
// uniformly across each day so every hour and weekday gets coverage.
func generateEvents(ctx context.Context, config *Config, stats *Stats) ([]model.Event, error) {
	logger.Get().Info(ctx, "generating synthetic ad events",
		logger.Int("days", config.Days),
		logger.Int("impressionsPerDay", config.ImpressionsPerDay),
	)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -config.Days)

	events := make([]model.Event, 0, config.Days*config.ImpressionsPerDay)
	for day := 0; day < config.Days; day++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		dayStart := start.AddDate(0, 0, day)
		for i := 0; i < config.ImpressionsPerDay; i++ {
			offset, _ := rand.Int(rand.Reader, big.NewInt(secondsPerDay))
			ts := dayStart.Add(time.Duration(offset.Int64()) * time.Second)

			device := pickString(devices)
			country := pickString(countries)

			// Clicks reuse the impression's request id, matching how the ad
			// server attributes them.
			impression := model.Event{
				Timestamp:   ts,
				EventType:   model.EventTypeImpression,
				RequestID:   uuid.NewString(),
				LineItemID:  pickInt(lineItems),
				DeviceType:  device,
				Country:     country,
				PublisherID: pickInt(publishers),
			}
			events = append(events, impression)
			stats.Impressions++

			ctr, ok := baseCTR[deviceCountry{device, country}]
			if !ok {
				ctr = defaultCTR
			}
			if getRandomFloat() < ctr {
				delay, _ := rand.Int(rand.Reader, big.NewInt(maxClickDelay))
				click := impression
				click.EventType = model.EventTypeClick
				click.Timestamp = ts.Add(time.Duration(delay.Int64()+1) * time.Second)
				events = append(events, click)
				stats.Clicks++
			}
		}
	}

	logger.Get().Info(ctx, "generated events",
		logger.Int("impressions", stats.Impressions),
		logger.Int("clicks", stats.Clicks),
	)
	return events, nil
}
