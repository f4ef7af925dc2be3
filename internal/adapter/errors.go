package adapter

import "errors"

// Delivery error taxonomy. The first three classes are retryable; a payload
// rejection is permanent and must surface to the user instead of burning the
// retry budget.
var (
	// ErrUnavailable wraps transport-level failures: network unreachable,
	// connection refused, request timeout.
	ErrUnavailable = errors.New("server unavailable")

	// ErrServerRejected is returned for 5xx responses.
	ErrServerRejected = errors.New("server rejected push")

	// ErrBadAck is returned when a 2xx response does not carry a well-formed
	// acknowledgment (missing success marker or server id).
	ErrBadAck = errors.New("malformed server acknowledgment")

	// ErrPayloadRejected is returned for 4xx responses: the record itself is
	// invalid and retrying the same payload cannot succeed.
	ErrPayloadRejected = errors.New("payload rejected by server")
)

// Retryable reports whether err belongs to the transient delivery classes.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrServerRejected) ||
		errors.Is(err, ErrBadAck)
}
