package eventstore

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrEmptyURL     = errors.New("event store URL is empty")
	ErrQueryFailed  = errors.New("event store query failed")
	ErrInsertFailed = errors.New("event store insert failed")
)
