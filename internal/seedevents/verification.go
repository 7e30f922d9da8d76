package seedevents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/ctrd/internal/adapters/eventstore"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
)

// contextStats accumulates per-context counts during verification.
type contextStats struct {
	impressions int
	clicks      int
}

// verifySeededData reads the seeded window back and reports CTR by device
// and country, so a bad run is visible before anyone trains on it.
func verifySeededData(ctx context.Context, config *Config, store *eventstore.Store, stats *Stats) error {
	logger.Get().Info(ctx, "verifying seeded data")

	end := time.Now().UTC().Add(time.Hour)
	start := end.AddDate(0, 0, -(config.Days + 1))

	events, err := store.QueryEvents(ctx, start, end)
	if err != nil {
		return fmt.Errorf("query seeded events: %w", err)
	}
	if len(events) == 0 {
		return fmt.Errorf("no events found in seeded window")
	}

	byContext := make(map[deviceCountry]*contextStats)
	total := contextStats{}
	for _, e := range events {
		key := deviceCountry{device: e.DeviceType, country: e.Country}
		cs, ok := byContext[key]
		if !ok {
			cs = &contextStats{}
			byContext[key] = cs
		}
		switch e.EventType {
		case model.EventTypeImpression:
			cs.impressions++
			total.impressions++
		case model.EventTypeClick:
			cs.clicks++
			total.clicks++
		}
	}

	if total.impressions == 0 {
		return fmt.Errorf("seeded window contains no impressions")
	}

	keys := make([]deviceCountry, 0, len(byContext))
	for k := range byContext {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].device != keys[j].device {
			return keys[i].device < keys[j].device
		}
		return keys[i].country < keys[j].country
	})

	for _, k := range keys {
		cs := byContext[k]
		ctr := 0.0
		if cs.impressions > 0 {
			ctr = float64(cs.clicks) / float64(cs.impressions)
		}
		logger.Get().Info(ctx, "seeded CTR by context",
			logger.String("device", k.device),
			logger.String("country", k.country),
			logger.Int("impressions", cs.impressions),
			logger.Int("clicks", cs.clicks),
			logger.Float64("ctr", ctr),
		)
	}

	logger.Get().Info(ctx, "verification completed",
		logger.Int("impressions", total.impressions),
		logger.Int("clicks", total.clicks),
		logger.Float64("overallCTR", float64(total.clicks)/float64(total.impressions)),
	)
	return nil
}
