// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mkalabin/calib-keeper/internal/adapter"
	"github.com/mkalabin/calib-keeper/internal/codec"
	"github.com/mkalabin/calib-keeper/internal/config"
	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/internal/mock"
	"github.com/mkalabin/calib-keeper/internal/store"
	"github.com/mkalabin/calib-keeper/models"
)

// newTestSyncSvc builds a syncService over mocks with a retry delay short
// enough for tests to exhaust the full budget quickly.
func newTestSyncSvc(
	t *testing.T,
	ctrl *gomock.Controller,
) (
	SyncService,
	*mock.MockRecordRepository,
	*mock.MockServerGateway,
	*mock.MockNotifier,
) {
	t.Helper()

	mockRepo := mock.NewMockRecordRepository(ctrl)
	mockGateway := mock.NewMockServerGateway(ctrl)
	mockNotifier := mock.NewMockNotifier(ctrl)

	cfg := config.Sync{MaxAttempts: 5, BaseDelay: time.Millisecond}
	svc := NewSyncService(mockRepo, mockGateway, mockNotifier, cfg, logger.Nop())

	return svc, mockRepo, mockGateway, mockNotifier
}

func unsyncedRecord(localID string) models.CalibrationRecord {
	return models.CalibrationRecord{
		LocalID: localID,
		Payload: models.CalibrationPayload{
			CertificateNumber: "CAL-" + localID,
			EquipmentID:       "EQ-1",
			FullScale:         100,
			AccuracyPercentFS: 2,
		},
	}
}

// pushOf matches a wire record by its local id.
type pushOf string

func (p pushOf) Matches(x any) bool {
	wire, ok := x.(codec.WireRecord)
	return ok && wire.LocalID == string(p)
}

func (p pushOf) String() string { return "wire record with local_id " + string(p) }

// ── SyncAll ──────────────────────────────────────────────────────────────────

func TestSyncAll_EmptyQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _, _ := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	mockRepo.EXPECT().GetUnsynced(ctx).Return(nil, nil)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Ok)
	assert.Zero(t, result.Pushed)
}

func TestSyncAll_PushesInInsertionOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, mockNotifier := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a, b, c := unsyncedRecord("a"), unsyncedRecord("b"), unsyncedRecord("c")
	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a, b, c}, nil)

	var calls []any
	for _, rec := range []models.CalibrationRecord{a, b, c} {
		ack := models.ServerAck{Status: models.AckStatusOK, ID: "srv-" + rec.LocalID}
		calls = append(calls,
			mockRepo.EXPECT().GetByID(gomock.Any(), rec.LocalID).Return(rec, nil),
			mockGateway.EXPECT().Push(gomock.Any(), pushOf(rec.LocalID)).Return(ack, nil),
			mockRepo.EXPECT().MarkSynced(gomock.Any(), rec.LocalID, ack).Return(true, nil),
			mockNotifier.EXPECT().Broadcast(models.SyncEvent{
				Type: models.SyncEventSynced, LocalID: rec.LocalID, ServerID: ack.ID,
			}).Return(nil),
		)
	}
	gomock.InOrder(calls...)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Ok)
	assert.Equal(t, 3, result.Pushed)
	assert.Zero(t, result.Failed)
}

func TestSyncAll_PartialFailureDoesNotBlockQueue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, mockNotifier := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a, b, c := unsyncedRecord("a"), unsyncedRecord("b"), unsyncedRecord("c")
	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a, b, c}, nil)

	ackA := models.ServerAck{Status: models.AckStatusOK, ID: "srv-a"}
	mockRepo.EXPECT().GetByID(gomock.Any(), "a").Return(a, nil)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("a")).Return(ackA, nil)
	mockRepo.EXPECT().MarkSynced(gomock.Any(), "a", ackA).Return(true, nil)
	mockNotifier.EXPECT().Broadcast(gomock.Any()).Return(nil)

	// b is rejected permanently; no retries, no mark, no broadcast
	mockRepo.EXPECT().GetByID(gomock.Any(), "b").Return(b, nil)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("b")).
		Return(models.ServerAck{}, adapter.ErrPayloadRejected)

	ackC := models.ServerAck{Status: models.AckStatusOK, ID: "srv-c"}
	mockRepo.EXPECT().GetByID(gomock.Any(), "c").Return(c, nil)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("c")).Return(ackC, nil)
	mockRepo.EXPECT().MarkSynced(gomock.Any(), "c", ackC).Return(true, nil)
	mockNotifier.EXPECT().Broadcast(gomock.Any()).Return(nil)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.False(t, result.Ok)
	assert.Equal(t, 2, result.Pushed)
	assert.Equal(t, 1, result.Failed)
}

func TestSyncAll_RetriesExhaustBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, _ := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a := unsyncedRecord("a")
	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a}, nil)

	// five attempts total, each re-reading the record first
	mockRepo.EXPECT().GetByID(gomock.Any(), "a").Return(a, nil).Times(5)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("a")).
		Return(models.ServerAck{}, adapter.ErrUnavailable).Times(5)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.False(t, result.Ok)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Pushed)
}

func TestSyncAll_TransientFailureRecoversOnRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, mockNotifier := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a := unsyncedRecord("a")
	ack := models.ServerAck{Status: models.AckStatusOK, ID: "srv-a"}

	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a}, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), "a").Return(a, nil).Times(2)
	gomock.InOrder(
		mockGateway.EXPECT().Push(gomock.Any(), pushOf("a")).
			Return(models.ServerAck{}, adapter.ErrServerRejected),
		mockGateway.EXPECT().Push(gomock.Any(), pushOf("a")).Return(ack, nil),
	)
	mockRepo.EXPECT().MarkSynced(gomock.Any(), "a", ack).Return(true, nil)
	mockNotifier.EXPECT().Broadcast(gomock.Any()).Return(nil)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Ok)
	assert.Equal(t, 1, result.Pushed)
}

func TestSyncAll_ConcurrentRunReturnsBusy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, mockNotifier := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a := unsyncedRecord("a")
	ack := models.ServerAck{Status: models.AckStatusOK, ID: "srv-a"}
	entered := make(chan struct{})
	release := make(chan struct{})

	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a}, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), "a").Return(a, nil)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("a")).
		DoAndReturn(func(context.Context, codec.WireRecord) (models.ServerAck, error) {
			close(entered)
			<-release
			return ack, nil
		})
	mockRepo.EXPECT().MarkSynced(gomock.Any(), "a", ack).Return(true, nil)
	mockNotifier.EXPECT().Broadcast(gomock.Any()).Return(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.SyncAll(ctx)
		assert.NoError(t, err)
	}()

	<-entered
	_, err := svc.SyncAll(ctx)
	assert.ErrorIs(t, err, ErrSyncBusy)

	close(release)
	wg.Wait()
}

func TestSyncAll_RecordDeletedMidRunIsSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, mockNotifier := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a, b := unsyncedRecord("a"), unsyncedRecord("b")
	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a, b}, nil)

	mockRepo.EXPECT().GetByID(gomock.Any(), "a").Return(models.CalibrationRecord{}, store.ErrRecordNotFound)

	ackB := models.ServerAck{Status: models.AckStatusOK, ID: "srv-b"}
	mockRepo.EXPECT().GetByID(gomock.Any(), "b").Return(b, nil)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("b")).Return(ackB, nil)
	mockRepo.EXPECT().MarkSynced(gomock.Any(), "b", ackB).Return(true, nil)
	mockNotifier.EXPECT().Broadcast(gomock.Any()).Return(nil)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Ok, "a vanished record is not a failure")
	assert.Equal(t, 1, result.Pushed)
	assert.Zero(t, result.Failed)
}

func TestSyncAll_MarkVanishedSkipsBroadcast(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, _ := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a := unsyncedRecord("a")
	ack := models.ServerAck{Status: models.AckStatusOK, ID: "srv-a"}

	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a}, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), "a").Return(a, nil)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("a")).Return(ack, nil)
	// record deleted between push and mark; nothing to announce
	mockRepo.EXPECT().MarkSynced(gomock.Any(), "a", ack).Return(false, nil)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Ok)
	assert.Equal(t, 1, result.Pushed)
}

func TestSyncAll_BroadcastFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, mockGateway, mockNotifier := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	a := unsyncedRecord("a")
	ack := models.ServerAck{Status: models.AckStatusOK, ID: "srv-a"}

	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return([]models.CalibrationRecord{a}, nil)
	mockRepo.EXPECT().GetByID(gomock.Any(), "a").Return(a, nil)
	mockGateway.EXPECT().Push(gomock.Any(), pushOf("a")).Return(ack, nil)
	mockRepo.EXPECT().MarkSynced(gomock.Any(), "a", ack).Return(true, nil)
	mockNotifier.EXPECT().Broadcast(gomock.Any()).Return(errors.New("broadcast file locked"))

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.True(t, result.Ok)
	assert.Equal(t, 1, result.Pushed)
}

func TestSyncAll_QueueLoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockRepo, _, _ := newTestSyncSvc(t, ctrl)
	ctx := context.Background()

	mockRepo.EXPECT().GetUnsynced(gomock.Any()).Return(nil, errors.New("db locked"))

	_, err := svc.SyncAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load unsynced queue")
}
