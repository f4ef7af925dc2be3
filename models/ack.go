package models

// AckStatusOK is the success marker the server must include in a push
// acknowledgment. Any other value, or a missing marker, makes the response an
// acknowledgment-format error.
const AckStatusOK = "ok"

// ServerAck is the server response confirming a successful record push.
type ServerAck struct {
	// Status is the success marker. Must equal AckStatusOK.
	Status string `json:"status"`

	// ID is the server-assigned identifier of the record. It becomes the
	// record's ServerID on the client.
	ID string `json:"id"`

	// Message optionally carries human-readable detail, mostly on errors.
	Message string `json:"message,omitempty"`
}
