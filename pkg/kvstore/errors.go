package kvstore

import "errors"

var (
	// ErrNotFound indicates no value is stored under the key
	ErrNotFound = errors.New("kvstore.not_found")

	// ErrEmptyKey indicates an empty key was passed to a mutation
	ErrEmptyKey = errors.New("kvstore.empty_key")

	// ErrCorruptFile indicates the backing file of a FileStore could not be decoded
	ErrCorruptFile = errors.New("kvstore.corrupt_file")

	// ErrWriteFailed indicates the backing file of a FileStore could not be written
	ErrWriteFailed = errors.New("kvstore.write_failed")
)
