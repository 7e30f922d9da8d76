package seedevents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/ctrd/internal/adapters/eventstore"
	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/logger"
)

// Run executes the complete seeding pass: generate, insert, verify.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting synthetic event seeding",
		logger.String("clickhouseURL", config.ClickHouseURL),
		logger.Int("days", config.Days),
		logger.Int("impressionsPerDay", config.ImpressionsPerDay),
		logger.Int("workers", config.Workers),
	)

	store, err := eventstore.New(config.ClickHouseURL,
		eventstore.WithDatabase(config.ClickHouseDatabase),
		eventstore.WithTable(config.ClickHouseTable),
		eventstore.WithCredentials(config.Username, config.Password),
		eventstore.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create event store: %w", err)
	}

	events, err := generateEvents(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("generate events: %w", err)
	}

	if err := insertEvents(ctx, config, store, events, stats); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}

	if err := verifySeededData(ctx, config, store, stats); err != nil {
		return fmt.Errorf("verify seeded data: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logger.Get().Info(ctx, "seeding completed",
		logger.Int("inserted", stats.Inserted),
		logger.Int("batches", stats.Batches),
		logger.String("duration", stats.Duration.String()),
	)
	return nil
}

// insertEvents writes events in batches over a pool of concurrent workers.
func insertEvents(ctx context.Context, config *Config, store *eventstore.Store, events []model.Event, stats *Stats) error {
	if len(events) == 0 {
		return nil
	}
	if config.BatchSize <= 0 {
		config.BatchSize = len(events)
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}

	// Slice events into batches up front so workers only pull indexes.
	type batch struct {
		start int
		end   int
	}
	var batches []batch
	for start := 0; start < len(events); start += config.BatchSize {
		end := start + config.BatchSize
		if end > len(events) {
			end = len(events)
		}
		batches = append(batches, batch{start: start, end: end})
	}

	workers := config.Workers
	if workers > len(batches) {
		workers = len(batches)
	}

	batchChan := make(chan batch)
	errChan := make(chan error, workers)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		done     int
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batchChan {
				if err := store.InsertEvents(ctx, events[b.start:b.end]); err != nil {
					errChan <- fmt.Errorf("insert batch [%d:%d]: %w", b.start, b.end, err)
					return
				}
				mu.Lock()
				inserted += b.end - b.start
				done++
				if config.Verbose {
					logger.Get().Info(ctx, "batch inserted",
						logger.Int("batch", done),
						logger.Int("rows", b.end-b.start),
					)
				}
				mu.Unlock()
			}
		}()
	}

	dispatch := func() error {
		defer close(batchChan)
		for _, b := range batches {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-errChan:
				return err
			case batchChan <- b:
			}
		}
		return nil
	}

	dispatchErr := dispatch()
	wg.Wait()

	// A worker may have failed after dispatch completed.
	select {
	case err := <-errChan:
		if dispatchErr == nil {
			dispatchErr = err
		}
	default:
	}
	if dispatchErr != nil {
		return dispatchErr
	}

	stats.Inserted = inserted
	stats.Batches = done
	logger.Get().Info(ctx, "inserted all events",
		logger.Int("rows", inserted),
		logger.Int("batches", done),
	)
	return nil
}
