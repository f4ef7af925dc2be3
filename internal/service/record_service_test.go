// SPDX-License-Identifier: Apache-2.0

package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/internal/mock"
	"github.com/mkalabin/calib-keeper/models"
)

func newTestRecordSvc(t *testing.T, ctrl *gomock.Controller) (RecordService, *mock.MockRecordRepository, *mock.MockSaveTrigger) {
	t.Helper()

	mockRepo := mock.NewMockRecordRepository(ctrl)
	mockTrigger := mock.NewMockSaveTrigger(ctrl)
	svc := NewRecordService(mockRepo, mockTrigger, logger.Nop())

	return svc, mockRepo, mockTrigger
}

func validRecord() *models.CalibrationRecord {
	return &models.CalibrationRecord{
		Payload: models.CalibrationPayload{
			CertificateNumber: "CAL-20250101-001",
			EquipmentID:       "EQ-7",
			InstrumentType:    "pressure gauge",
			FullScale:         100,
			AccuracyPercentFS: 2,
			TestPoints: []models.TestPoint{
				{Reference: 0, Direction: models.DirectionRising, Measured: 0},
				{Reference: 100, Direction: models.DirectionRising, Measured: 99.5},
			},
		},
	}
}

// ── Save ─────────────────────────────────────────────────────────────────────

func TestSave_StoresAndTriggersSync(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockTrigger := newTestRecordSvc(t, ctrl)
	ctx := context.Background()
	record := validRecord()

	gomock.InOrder(
		mockRepo.EXPECT().Put(ctx, record).Return(nil),
		mockTrigger.EXPECT().OnSave(),
	)

	require.NoError(t, svc.Save(ctx, record))
	assert.Equal(t, models.ResultPass, record.Summary.Overall, "summary must be recomputed on save")
	assert.False(t, record.Synced)
}

func TestSave_EditedRecordBecomesUnsyncedAgain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockTrigger := newTestRecordSvc(t, ctrl)
	ctx := context.Background()

	serverID := "srv-9"
	syncAt := time.Now()
	record := validRecord()
	record.LocalID = "rec-1"
	record.ServerID = &serverID
	record.Synced = true
	record.SyncAt = &syncAt

	mockRepo.EXPECT().Put(ctx, record).Return(nil)
	mockTrigger.EXPECT().OnSave()

	require.NoError(t, svc.Save(ctx, record))
	assert.False(t, record.Synced, "an edit re-enters the sync queue")
	assert.Nil(t, record.SyncAt)
	assert.Equal(t, &serverID, record.ServerID, "the server identity survives edits")
}

func TestSave_InvalidRecordNeverReachesStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no Put and no OnSave expectations: any call fails the test
	svc, _, _ := newTestRecordSvc(t, ctrl)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(r *models.CalibrationRecord)
		wantErr error
	}{
		{"missing certificate number", func(r *models.CalibrationRecord) { r.Payload.CertificateNumber = "" }, ErrValidationCertificateNumber},
		{"missing equipment id", func(r *models.CalibrationRecord) { r.Payload.EquipmentID = "" }, ErrValidationEquipmentID},
		{"zero full scale", func(r *models.CalibrationRecord) { r.Payload.FullScale = 0 }, ErrValidationFullScaleNotPositive},
		{"negative accuracy", func(r *models.CalibrationRecord) { r.Payload.AccuracyPercentFS = -1 }, ErrValidationAccuracyNotPositive},
		{"bad direction", func(r *models.CalibrationRecord) { r.Payload.TestPoints[0].Direction = "sideways" }, ErrValidationTestPointDirection},
		{"empty signature", func(r *models.CalibrationRecord) { r.Signature = &models.Attachment{Name: "sig.png"} }, ErrValidationSignatureEmpty},
		{"unnamed attachment", func(r *models.CalibrationRecord) { r.Attachments = []models.Attachment{{Data: []byte{1}}} }, ErrValidationAttachmentNameMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(record)

			err := svc.Save(ctx, record)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSave_NilRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _ := newTestRecordSvc(t, ctrl)

	err := svc.Save(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidationNoRecord)
}

func TestSave_StoreFailureSkipsTrigger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)
	ctx := context.Background()
	record := validRecord()

	mockRepo.EXPECT().Put(ctx, record).Return(errors.New("disk full"))

	err := svc.Save(ctx, record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store record")
}

// ── Delete ───────────────────────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)
	ctx := context.Background()

	mockRepo.EXPECT().Delete(ctx, "rec-1").Return(nil)

	require.NoError(t, svc.Delete(ctx, "rec-1"))
}

// ── ExportCSV ────────────────────────────────────────────────────────────────

func TestExportCSV(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)
	ctx := context.Background()

	serverID := "srv-1"
	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	synced := *validRecord()
	synced.LocalID = "rec-1"
	synced.ServerID = &serverID
	synced.Synced = true
	synced.CreatedAt = &created
	synced.RecomputeSummary()

	pending := *validRecord()
	pending.LocalID = "rec-2"
	pending.Payload.CertificateNumber = "CAL-20250101-002"
	pending.RecomputeSummary()

	mockRepo.EXPECT().GetAll(ctx).Return([]models.CalibrationRecord{synced, pending}, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per record")

	assert.Equal(t, csvHeader, rows[0])

	assert.Equal(t, "rec-1", rows[1][0])
	assert.Equal(t, "srv-1", rows[1][1])
	assert.Equal(t, "true", rows[1][2])
	assert.Equal(t, "CAL-20250101-001", rows[1][3])
	assert.Equal(t, "2", rows[1][9], "test points total")
	assert.Equal(t, models.ResultPass, rows[1][11])
	assert.Equal(t, "2025-01-01T10:00:00Z", rows[1][13])

	assert.Equal(t, "rec-2", rows[2][0])
	assert.Equal(t, "", rows[2][1], "unsynced record has no server id")
	assert.Equal(t, "false", rows[2][2])
}

func TestExportCSV_LoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _ := newTestRecordSvc(t, ctrl)

	mockRepo.EXPECT().GetAll(gomock.Any()).Return(nil, errors.New("db locked"))

	err := svc.ExportCSV(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
}
