package metrics

import "errors"

// Sentinel error kinds for metrics operations.
var (
	ErrObserveFailed = errors.New("metrics observe failed")
)
