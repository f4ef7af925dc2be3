// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/internal/store"
	"github.com/mkalabin/calib-keeper/models"
)

type recordService struct {
	records store.RecordRepository
	trigger SaveTrigger
	logger  *logger.Logger
}

// NewRecordService creates the record lifecycle service. trigger is notified
// after every successful save; pass a no-op when sync scheduling is disabled.
func NewRecordService(records store.RecordRepository, trigger SaveTrigger, log *logger.Logger) RecordService {
	return &recordService{records: records, trigger: trigger, logger: log}
}

// Save implements [RecordService].
func (s *recordService) Save(ctx context.Context, record *models.CalibrationRecord) error {
	log := s.logger.With().Str("func", "Save").Logger()

	if err := validateRecord(record); err != nil {
		return err
	}

	record.RecomputeSummary()
	// any local mutation needs a fresh acknowledgment
	record.Synced = false
	record.SyncAt = nil

	if err := s.records.Put(ctx, record); err != nil {
		return fmt.Errorf("store record: %w", err)
	}

	log.Debug().Str("local_id", record.LocalID).Str("certificate", record.Payload.CertificateNumber).Msg("record saved")
	s.trigger.OnSave()
	return nil
}

// Get implements [RecordService].
func (s *recordService) Get(ctx context.Context, localID string) (models.CalibrationRecord, error) {
	return s.records.GetByID(ctx, localID)
}

// List implements [RecordService].
func (s *recordService) List(ctx context.Context) ([]models.CalibrationRecord, error) {
	return s.records.GetAll(ctx)
}

// ListUnsynced implements [RecordService].
func (s *recordService) ListUnsynced(ctx context.Context) ([]models.CalibrationRecord, error) {
	return s.records.GetUnsynced(ctx)
}

// Delete implements [RecordService].
func (s *recordService) Delete(ctx context.Context, localID string) error {
	if err := s.records.Delete(ctx, localID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.logger.Debug().Str("func", "Delete").Str("local_id", localID).Msg("record deleted locally")
	return nil
}

var csvHeader = []string{
	"local_id", "server_id", "synced",
	"certificate_number", "equipment_id", "instrument_type",
	"full_scale", "accuracy_percent_fs", "tolerance",
	"test_points_total", "test_points_failed", "overall",
	"technician", "created_at", "last_modified", "sync_at",
}

// ExportCSV implements [RecordService].
func (s *recordService) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.records.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load records for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.LocalID,
			strOrEmpty(r.ServerID),
			strconv.FormatBool(r.Synced),
			r.Payload.CertificateNumber,
			r.Payload.EquipmentID,
			r.Payload.InstrumentType,
			formatFloat(r.Payload.FullScale),
			formatFloat(r.Payload.AccuracyPercentFS),
			formatFloat(r.Summary.Tolerance),
			strconv.Itoa(r.Summary.TestPointsTotal),
			strconv.Itoa(r.Summary.TestPointsFailed),
			r.Summary.Overall,
			r.Payload.Technician,
			formatTime(r.CreatedAt),
			formatTime(r.LastModified),
			formatTime(r.SyncAt),
		}
		if err = cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.LocalID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func validateRecord(record *models.CalibrationRecord) error {
	if record == nil {
		return ErrValidationNoRecord
	}
	if record.Payload.CertificateNumber == "" {
		return ErrValidationCertificateNumber
	}
	if record.Payload.EquipmentID == "" {
		return ErrValidationEquipmentID
	}
	if record.Payload.FullScale <= 0 {
		return ErrValidationFullScaleNotPositive
	}
	if record.Payload.AccuracyPercentFS <= 0 {
		return ErrValidationAccuracyNotPositive
	}
	for _, tp := range record.Payload.TestPoints {
		if tp.Direction != models.DirectionRising && tp.Direction != models.DirectionFalling {
			return fmt.Errorf("%w: %q", ErrValidationTestPointDirection, tp.Direction)
		}
	}
	if record.Signature != nil && len(record.Signature.Data) == 0 {
		return ErrValidationSignatureEmpty
	}
	for _, att := range record.Attachments {
		if att.Name == "" {
			return ErrValidationAttachmentNameMissing
		}
	}
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
