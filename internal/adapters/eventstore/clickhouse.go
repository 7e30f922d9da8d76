// Package eventstore reads and writes ad events in ClickHouse over its HTTP
// interface using FORMAT JSONEachRow. The service only ever reads; the batch
// insert path exists for the synthetic seeder.
package eventstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/ctrd/internal/domain/model"
	"github.com/okian/ctrd/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultDatabase = "default"
	defaultTable    = "events"
	defaultTimeout  = 30 * time.Second

	// clickhouseTimeLayout is the DateTime rendering ClickHouse uses in
	// JSON output and accepts on insert.
	clickhouseTimeLayout = "2006-01-02 15:04:05"
)

// Store is a ClickHouse-backed event source.
type Store struct {
	baseURL  string
	database string
	table    string
	username string
	password string
	timeout  time.Duration
	client   *http.Client
}

// New creates a Store for the ClickHouse HTTP endpoint at baseURL,
// e.g. "http://clickhouse:8123".
func New(baseURL string, opts ...Option) (*Store, error) {
	if baseURL == "" {
		return nil, ErrEmptyURL
	}
	s := &Store{
		baseURL:  strings.TrimRight(baseURL, "/"),
		database: defaultDatabase,
		table:    defaultTable,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.client = &http.Client{Timeout: s.timeout}
	return s, nil
}

// eventRow mirrors one JSONEachRow line from the events table. The timestamp
// arrives as a ClickHouse DateTime string and is parsed separately.
type eventRow struct {
	Timestamp   string `json:"timestamp"`
	EventType   string `json:"event_type"`
	RequestID   string `json:"request_id"`
	LineItemID  int    `json:"line_item_id"`
	DeviceType  string `json:"device_type"`
	Country     string `json:"country"`
	PublisherID int    `json:"publisher_id"`
}

// QueryEvents returns impression and click events in [start, end) with
// non-empty line item, device, and country, ordered by timestamp.
func (s *Store) QueryEvents(ctx context.Context, start, end time.Time) ([]model.Event, error) {
	query := fmt.Sprintf(`SELECT
    timestamp,
    event_type,
    request_id,
    line_item_id,
    device_type,
    country,
    publisher_id
FROM %s.%s
WHERE timestamp >= '%s'
    AND timestamp < '%s'
    AND line_item_id != 0
    AND device_type != ''
    AND country != ''
    AND event_type IN ('impression', 'click')
ORDER BY timestamp
FORMAT JSONEachRow`,
		quoteIdent(s.database), quoteIdent(s.table),
		start.UTC().Format(clickhouseTimeLayout), end.UTC().Format(clickhouseTimeLayout))

	began := time.Now()
	body, err := s.execute(ctx, query, nil)
	metrics.RecordEventStoreQueryLatency(float64(time.Since(began).Milliseconds()))
	if err != nil {
		metrics.RecordEventStoreError()
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer body.Close()

	var events []model.Event
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var row eventRow
		if err := json.Unmarshal(line, &row); err != nil {
			metrics.RecordEventStoreError()
			return nil, fmt.Errorf("%w: decode row: %w", ErrQueryFailed, err)
		}
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			metrics.RecordEventStoreError()
			return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		events = append(events, model.Event{
			Timestamp:   ts,
			EventType:   row.EventType,
			RequestID:   row.RequestID,
			LineItemID:  row.LineItemID,
			DeviceType:  row.DeviceType,
			Country:     row.Country,
			PublisherID: row.PublisherID,
		})
	}
	if err := scanner.Err(); err != nil {
		metrics.RecordEventStoreError()
		return nil, fmt.Errorf("%w: read response: %w", ErrQueryFailed, err)
	}

	metrics.RecordEventStoreRows(len(events))
	return events, nil
}

// InsertEvents writes a batch of events via INSERT ... FORMAT JSONEachRow.
// Used only by the synthetic seeder; the prediction service never writes.
func (s *Store) InsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	for _, e := range events {
		row := eventRow{
			Timestamp:   e.Timestamp.UTC().Format(clickhouseTimeLayout),
			EventType:   e.EventType,
			RequestID:   e.RequestID,
			LineItemID:  e.LineItemID,
			DeviceType:  e.DeviceType,
			Country:     e.Country,
			PublisherID: e.PublisherID,
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("%w: encode row: %w", ErrInsertFailed, err)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s.%s (timestamp, event_type, request_id, line_item_id, device_type, country, publisher_id) FORMAT JSONEachRow",
		quoteIdent(s.database), quoteIdent(s.table))

	body, err := s.execute(ctx, query, &payload)
	if err != nil {
		metrics.RecordEventStoreError()
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	return body.Close()
}

// execute runs a query against the ClickHouse HTTP endpoint. For statements
// with a data payload the query travels in the URL; otherwise it is the body.
func (s *Store) execute(ctx context.Context, query string, payload io.Reader) (io.ReadCloser, error) {
	endpoint := s.baseURL + "/"
	var body io.Reader
	if payload != nil {
		endpoint += "?query=" + url.QueryEscape(query)
		body = payload
	} else {
		body = strings.NewReader(query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if s.username != "" {
		req.Header.Set("X-ClickHouse-User", s.username)
	}
	if s.password != "" {
		req.Header.Set("X-ClickHouse-Key", s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return resp.Body, nil
}

// parseTimestamp accepts both ClickHouse DateTime and RFC3339 renderings.
func parseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(clickhouseTimeLayout, v); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return ts, nil
}

// quoteIdent wraps an identifier in backticks, escaping embedded ones.
func quoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "\\`") + "`"
}
