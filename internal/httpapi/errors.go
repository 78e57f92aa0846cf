package httpapi

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("httpapi: unsupported media type")
	ErrInvalidJSON          = errors.New("httpapi: invalid JSON")
	ErrBodyTooLarge         = errors.New("httpapi: request body too large")
	ErrHydrating            = errors.New("httpapi: session is still hydrating")
	ErrUnauthenticated      = errors.New("httpapi: not signed in")
	ErrPanic                = errors.New("httpapi: handler panicked")
)
