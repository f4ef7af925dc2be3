// SPDX-License-Identifier: Apache-2.0

// Package adapter provides the transport layer for pushing calibration
// records to the server.
//
// The primary abstraction is [ServerGateway], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/JSON implementation
// ([NewHTTPServerGateway]) built on resty.
//
// Error values defined in errors.go are mapped from transport failures and
// HTTP status codes by mapHTTPError so that callers can use [errors.Is] and
// [Retryable] for transport-agnostic error handling.
package adapter

import (
	"context"

	"github.com/mkalabin/calib-keeper/internal/codec"
	"github.com/mkalabin/calib-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_gateway_mock.go -package=mock

// ServerGateway defines transport-agnostic communication with the calibration
// server. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel
// values defined in this package.
type ServerGateway interface {
	// SetToken stores the bearer token attached to all subsequent requests.
	// Authentication itself is out of scope; the token is applied as-is.
	SetToken(token string)

	// Token returns the bearer token currently stored in the gateway, or an
	// empty string if no token has been set yet.
	Token() string

	// TokenSubject returns the subject claim of the stored bearer token
	// without verifying its signature. Used for display and logging only.
	TokenSubject() (string, error)

	// Push delivers one encoded record to the server and returns its
	// acknowledgment. An ill-formed acknowledgment (missing success marker
	// or server id) is reported as ErrBadAck. Status-code failures map to
	// ErrServerRejected (5xx, retryable) or ErrPayloadRejected (4xx,
	// permanent); transport failures wrap ErrUnavailable.
	Push(ctx context.Context, record codec.WireRecord) (models.ServerAck, error)

	// Ping probes server reachability. Used by the connectivity worker to
	// detect offline-to-online transitions.
	Ping(ctx context.Context) error
}
