package seedevents

import (
	"fmt"
	"os"

	"github.com/okian/ctrd/pkg/logger"
)

// SetupLogging initializes the structured logger for the seeder.
func SetupLogging() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the seed events tool.
func ShowHelp() {
	os.Stdout.WriteString(`CTR Synthetic Event Seeder
==========================

Generates realistic impression and click events with device and country
CTR patterns, and writes them to the ClickHouse events table so the
prediction service has data to train on.

Usage:
  go run cmd/seed-events/main.go [options]

Options:
  -url string
        ClickHouse HTTP endpoint (default "http://localhost:8123")
  -database string
        Target database (default "default")
  -table string
        Target events table (default "events")
  -user string
        ClickHouse username (optional)
  -password string
        ClickHouse password (optional)
  -days int
        Number of days of history to generate (default 7)
  -impressions int
        Impressions per day (default 1000)
  -workers int
        Number of concurrent insert workers (default CPU cores)
  -batch int
        Rows per insert batch (default 500)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed-events/main.go

  # Seed a month of heavier traffic
  go run cmd/seed-events/main.go -days 30 -impressions 5000

  # Seed a remote cluster
  go run cmd/seed-events/main.go -url http://clickhouse:8123 -user default
`)
}
