package eventstore

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithDatabase sets the ClickHouse database name.
func WithDatabase(db string) Option {
	return func(s *Store) {
		if db != "" {
			s.database = db
		}
	}
}

// WithTable sets the events table name.
func WithTable(table string) Option {
	return func(s *Store) {
		if table != "" {
			s.table = table
		}
	}
}

// WithCredentials sets the ClickHouse user and password headers.
func WithCredentials(username, password string) Option {
	return func(s *Store) {
		s.username = username
		s.password = password
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}
