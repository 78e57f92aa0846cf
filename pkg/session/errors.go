package session

import "errors"

var (
	// ErrStoreRead indicates the store failed to return the session record.
	ErrStoreRead = errors.New("session.store_read_failed")

	// ErrStoreParse indicates the stored record is not a valid identity.
	ErrStoreParse = errors.New("session.store_parse_failed")

	// ErrStorePersist indicates writing or erasing the record failed.
	ErrStorePersist = errors.New("session.store_persist_failed")

	// ErrInvalidTransition indicates an event has no transition from the current phase.
	ErrInvalidTransition = errors.New("session.invalid_transition")
)
