// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"io"

	"github.com/mkalabin/calib-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// SyncService is the sync engine. One run drains the unsynced queue in
// insertion order, delivering each record with bounded retries.
type SyncService interface {
	// SyncAll pushes every unsynced record, oldest first. At most one run
	// is active per engine; a concurrent call returns ErrSyncBusy without
	// touching the queue. A record that exhausts its retry budget is
	// counted as failed and does not block the records behind it.
	SyncAll(ctx context.Context) (models.SyncResult, error)
}

// SaveTrigger is the subset of the trigger policy the record service needs.
type SaveTrigger interface {
	OnSave()
}

// RecordService owns the local lifecycle of calibration records: validation,
// persistence, and export. All mutations leave the record unsynced until the
// engine delivers it.
type RecordService interface {
	// Save validates record, recomputes its derived fields, stores it, and
	// notes the save with the trigger policy. Invalid records never reach
	// the store or the sync queue.
	Save(ctx context.Context, record *models.CalibrationRecord) error

	// Get returns one record by local id.
	Get(ctx context.Context, localID string) (models.CalibrationRecord, error)

	// List returns all records in insertion order.
	List(ctx context.Context) ([]models.CalibrationRecord, error)

	// ListUnsynced returns the pending queue in insertion order.
	ListUnsynced(ctx context.Context) ([]models.CalibrationRecord, error)

	// Delete removes a record locally. The server copy, if any, is kept.
	Delete(ctx context.Context, localID string) error

	// ExportCSV writes all records to w as a CSV certificate register.
	ExportCSV(ctx context.Context, w io.Writer) error
}
