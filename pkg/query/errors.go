package query

import "errors"

var (
	// ErrClosed is returned by Fetch after Close.
	ErrClosed = errors.New("query: client closed")
	// ErrTypeMismatch is returned when a key is fetched with a different type than it was cached with.
	ErrTypeMismatch = errors.New("query: cached value has a different type")
)
