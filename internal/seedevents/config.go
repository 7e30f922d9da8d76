package seedevents

import "time"

// Config holds configuration for the synthetic event seeder.
type Config struct {
	ClickHouseURL      string        // ClickHouse HTTP endpoint
	ClickHouseDatabase string        // Target database
	ClickHouseTable    string        // Target events table
	Username           string        // Optional credentials
	Password           string        //
	Days               int           // Number of days of history to generate
	ImpressionsPerDay  int           // Impressions generated per day
	Workers            int           // Number of concurrent insert workers
	BatchSize          int           // Rows per insert batch
	Timeout            time.Duration // HTTP request timeout
	Verbose            bool          // Enable verbose logging
}

// Stats holds seeding statistics.
type Stats struct {
	Impressions int
	Clicks      int
	Inserted    int
	Batches     int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
