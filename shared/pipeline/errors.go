package pipeline

import "errors"

// Stage failure taxonomy. Every failure an external collaborator can produce
// maps onto one of these (or wraps one), and all of them are contained at the
// stage boundary: they become a DEGRADED transition plus a recorded error,
// never a fault escaping Run.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrQuotaExceeded = errors.New("upstream quota exceeded")
	ErrTimeout       = errors.New("stage timed out")
	ErrInvalidInput  = errors.New("unparsable video identifier")
)
