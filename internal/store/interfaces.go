package store

import (
	"context"

	"github.com/mkalabin/calib-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// RecordRepository is the local calibration record store. Every operation
// runs in its own transaction; there is no cross-operation locking, so
// concurrent writers to the same local id resolve as last-writer-wins.
type RecordRepository interface {
	// Put inserts or overwrites a record by its local id. A missing local
	// id is generated, LastModified is always refreshed. Upsert semantics:
	// a duplicate key never fails.
	Put(ctx context.Context, record *models.CalibrationRecord) error

	// GetByID returns the record or ErrRecordNotFound.
	GetByID(ctx context.Context, localID string) (models.CalibrationRecord, error)

	// GetAll returns every stored record in insertion order.
	GetAll(ctx context.Context) ([]models.CalibrationRecord, error)

	// GetUnsynced returns all records not yet acknowledged by the server,
	// in insertion order. Index-backed; the sync engine polls it often.
	GetUnsynced(ctx context.Context) ([]models.CalibrationRecord, error)

	// Delete removes the record and its attachments. Irreversible; the
	// caller is responsible for informing the server if needed.
	Delete(ctx context.Context, localID string) error

	// MarkSynced transactionally sets synced, the server id, and the sync
	// timestamp. Returns false when the record no longer exists (deleted
	// concurrently); that outcome is benign for callers.
	MarkSynced(ctx context.Context, localID string, ack models.ServerAck) (bool, error)
}
