// SPDX-License-Identifier: Apache-2.0

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkalabin/calib-keeper/internal/codec"
	"github.com/mkalabin/calib-keeper/internal/config"
	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/models"
)

// newTestGateway builds an httpServerGateway pointed at the test server.
func newTestGateway(t *testing.T, serverURL string) *httpServerGateway {
	t.Helper()

	g, err := NewHTTPServerGateway(config.Adapter{BaseURL: serverURL}, logger.Nop())
	require.NoError(t, err)
	return g.(*httpServerGateway)
}

func wireRecord() codec.WireRecord {
	return codec.Encode(models.CalibrationRecord{
		LocalID: "rec-1",
		Payload: models.CalibrationPayload{CertificateNumber: "CAL-20250101-001"},
	})
}

// ── Push ─────────────────────────────────────────────────────────────────────

func TestPush_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/records/push", r.URL.Path)

		var got codec.WireRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "rec-1", got.LocalID)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ServerAck{Status: models.AckStatusOK, ID: "srv-7"})
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	ack, err := g.Push(context.Background(), wireRecord())

	require.NoError(t, err)
	assert.Equal(t, "srv-7", ack.ID)
}

func TestPush_AttachesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(models.ServerAck{Status: models.AckStatusOK, ID: "srv-1"})
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	g.SetToken("test-token")

	_, err := g.Push(context.Background(), wireRecord())
	require.NoError(t, err)
}

func TestPush_ServerError_Retryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Push(context.Background(), wireRecord())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerRejected)
	assert.True(t, Retryable(err))
}

func TestPush_PayloadRejected_Permanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("certificate number is required"))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Push(context.Background(), wireRecord())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPayloadRejected)
	assert.False(t, Retryable(err))
}

func TestPush_MalformedAck_Retryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"stored"}`)) // no status marker, no id
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Push(context.Background(), wireRecord())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadAck)
	assert.True(t, Retryable(err))
}

func TestPush_TransportFailure_Retryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	g := newTestGateway(t, srv.URL)
	_, err := g.Push(context.Background(), wireRecord())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, Retryable(err))
}

// ── Ping ─────────────────────────────────────────────────────────────────────

func TestPing_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	require.NoError(t, g.Ping(context.Background()))
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := newTestGateway(t, srv.URL)
	err := g.Ping(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

// ── base URL and token helpers ───────────────────────────────────────────────

func TestNewHTTPServerGateway_EmptyBaseURL(t *testing.T) {
	_, err := NewHTTPServerGateway(config.Adapter{}, logger.Nop())
	require.Error(t, err)
}

func TestNormalizeBaseURL_AddsScheme(t *testing.T) {
	got, err := normalizeBaseURL("localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)
}

func TestTokenSubject(t *testing.T) {
	// unsigned token with sub=tech-17, header {"alg":"none"}
	const token = "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJzdWIiOiJ0ZWNoLTE3In0."

	g := newTestGateway(t, "http://localhost:9999")
	g.SetToken(token)

	subject, err := g.TokenSubject()
	require.NoError(t, err)
	assert.Equal(t, "tech-17", subject)
}

func TestTokenSubject_NoToken(t *testing.T) {
	g := newTestGateway(t, "http://localhost:9999")
	_, err := g.TokenSubject()
	require.Error(t, err)
}
