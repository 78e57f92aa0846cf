package validator

import "errors"

// ErrValidationFailed is matched by errors.Is for every ValidationErrors value.
var ErrValidationFailed = errors.New("validation failed")
