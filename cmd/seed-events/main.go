package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/ctrd/internal/seedevents"
)

// Default configuration constants.
const (
	defaultDays        = 7
	defaultImpressions = 1000
	defaultBatchSize   = 500
	defaultTimeout     = 30 * time.Second
	defaultSeedTimeout = 10 * time.Minute
)

func main() {
	var (
		url         = flag.String("url", "http://localhost:8123", "ClickHouse HTTP endpoint")
		database    = flag.String("database", "default", "Target database")
		table       = flag.String("table", "events", "Target events table")
		user        = flag.String("user", "", "ClickHouse username")
		password    = flag.String("password", "", "ClickHouse password")
		days        = flag.Int("days", defaultDays, "Number of days of history to generate")
		impressions = flag.Int("impressions", defaultImpressions, "Impressions per day")
		workers     = flag.Int("workers", runtime.NumCPU(), "Number of concurrent insert workers")
		batchSize   = flag.Int("batch", defaultBatchSize, "Rows per insert batch")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seedevents.ShowHelp()
		return
	}

	if err := seedevents.SetupLogging(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultSeedTimeout)
	defer cancel()

	config := &seedevents.Config{
		ClickHouseURL:      *url,
		ClickHouseDatabase: *database,
		ClickHouseTable:    *table,
		Username:           *user,
		Password:           *password,
		Days:               *days,
		ImpressionsPerDay:  *impressions,
		Workers:            *workers,
		BatchSize:          *batchSize,
		Timeout:            *timeout,
		Verbose:            *verbose,
	}

	if err := seedevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seeding failed: " + err.Error() + "\n")
		return
	}
}
