// SPDX-License-Identifier: Apache-2.0

// Package devserver is a development stand-in for the calibration server.
// It accepts record pushes into process memory and acknowledges them the way
// the production API does, so the client stack can be exercised end to end
// without a backend deployment. Nothing survives a restart.
package devserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mkalabin/calib-keeper/internal/codec"
	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/models"
)

// Server holds pushed records in memory, keyed by local id.
type Server struct {
	logger *logger.Logger

	mu       sync.Mutex
	accepted map[string]acceptedRecord
}

type acceptedRecord struct {
	serverID string
	record   codec.WireRecord
}

// New creates an empty dev server.
func New(log *logger.Logger) *Server {
	return &Server{
		logger:   log,
		accepted: make(map[string]acceptedRecord),
	}
}

// Router builds the HTTP surface: the push endpoint and the readiness probe.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/records/push", s.handlePush)
	r.Get("/ping", s.handlePing)

	return r
}

// handlePush validates and stores one pushed record. Pushing the same local
// id again overwrites the stored copy and returns the previously assigned
// server id, which makes client retries safe.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With().Str("func", "handlePush").Logger()

	var wire codec.WireRecord
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		log.Warn().Err(err).Msg("undecodable push body")
		http.Error(w, "malformed record payload", http.StatusBadRequest)
		return
	}
	if wire.LocalID == "" {
		http.Error(w, "local_id is required", http.StatusUnprocessableEntity)
		return
	}
	if wire.Payload.CertificateNumber == "" {
		http.Error(w, "certificate_number is required", http.StatusUnprocessableEntity)
		return
	}
	if _, err := codec.Decode(wire); err != nil {
		log.Warn().Err(err).Str("local_id", wire.LocalID).Msg("rejecting push")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	entry, seen := s.accepted[wire.LocalID]
	if !seen {
		entry = acceptedRecord{serverID: uuid.NewString()}
	}
	entry.record = wire
	s.accepted[wire.LocalID] = entry
	s.mu.Unlock()

	log.Info().Str("local_id", wire.LocalID).Str("server_id", entry.serverID).Bool("repeat", seen).Msg("record accepted")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(models.ServerAck{
		Status:  models.AckStatusOK,
		ID:      entry.serverID,
		Message: "record accepted",
	})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Accepted returns a copy of every stored record, for inspection in tests.
func (s *Server) Accepted() []codec.WireRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]codec.WireRecord, 0, len(s.accepted))
	for _, entry := range s.accepted {
		records = append(records, entry.record)
	}
	return records
}
