package app

import "errors"

var (
	ErrUnknownDriver = errors.New("app: unknown store driver")
	ErrOpenStore     = errors.New("app: failed to open store")
	ErrOpenSink      = errors.New("app: failed to set up telemetry")
)
