package order

import "errors"

var (
	// ErrNotFound means a query that required a row came back empty.
	ErrNotFound = errors.New("record not found")
	// ErrWrite means an insert or update failed at the store.
	ErrWrite = errors.New("write failed")
)
