package opensearch

import "errors"

var (
	ErrConnect           = errors.New("opensearch: failed to create client")
	ErrHealthcheckFailed = errors.New("opensearch: cluster unreachable or unhealthy")
	ErrIndexFailed       = errors.New("opensearch: index request failed")
)
