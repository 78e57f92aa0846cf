package s3kv

import "errors"

var (
	ErrInvalidConfig      = errors.New("s3kv: bucket and region are required")
	ErrFailedToLoadConfig = errors.New("s3kv: failed to load aws config")
	ErrBucketNotFound     = errors.New("s3kv: bucket not found")
	ErrAccessDenied       = errors.New("s3kv: access denied")
	ErrHealthcheckFailed  = errors.New("s3kv: healthcheck failed")
)
