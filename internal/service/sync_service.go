// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/mkalabin/calib-keeper/internal/adapter"
	"github.com/mkalabin/calib-keeper/internal/codec"
	"github.com/mkalabin/calib-keeper/internal/config"
	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/internal/notifier"
	"github.com/mkalabin/calib-keeper/internal/store"
	"github.com/mkalabin/calib-keeper/models"
)

type syncService struct {
	records  store.RecordRepository
	gateway  adapter.ServerGateway
	notifier notifier.Notifier
	logger   *logger.Logger

	maxAttempts uint64
	baseDelay   time.Duration

	busy atomic.Bool
}

// NewSyncService creates the sync engine. Retry bounds come from cfg:
// each record gets cfg.MaxAttempts delivery attempts with exponential
// backoff starting at cfg.BaseDelay.
func NewSyncService(
	records store.RecordRepository,
	gateway adapter.ServerGateway,
	broadcast notifier.Notifier,
	cfg config.Sync,
	log *logger.Logger,
) SyncService {
	return &syncService{
		records:     records,
		gateway:     gateway,
		notifier:    broadcast,
		logger:      log,
		maxAttempts: uint64(cfg.MaxAttempts),
		baseDelay:   cfg.BaseDelay,
	}
}

// SyncAll implements [SyncService].
func (s *syncService) SyncAll(ctx context.Context) (models.SyncResult, error) {
	log := s.logger.With().Str("func", "SyncAll").Logger()

	if !s.busy.CompareAndSwap(false, true) {
		return models.SyncResult{}, ErrSyncBusy
	}
	defer s.busy.Store(false)

	queue, err := s.records.GetUnsynced(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("load unsynced queue: %w", err)
	}
	if len(queue) == 0 {
		return models.SyncResult{Ok: true}, nil
	}

	log.Info().Int("queued", len(queue)).Msg("sync run started")

	var result models.SyncResult
	for _, record := range queue {
		ack, err := s.pushWithRetry(ctx, record.LocalID)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrRecordNotFound):
			// deleted mid-run; nothing to deliver
			continue
		case ctx.Err() != nil:
			result.Ok = false
			return result, ctx.Err()
		default:
			result.Failed++
			log.Warn().Err(err).Str("local_id", record.LocalID).Msg("record delivery failed, leaving in queue")
			continue
		}

		marked, err := s.records.MarkSynced(ctx, record.LocalID, ack)
		if err != nil {
			result.Failed++
			log.Error().Err(err).Str("local_id", record.LocalID).Msg("delivered record could not be marked synced")
			continue
		}

		result.Pushed++
		if !marked {
			continue
		}

		event := models.SyncEvent{Type: models.SyncEventSynced, LocalID: record.LocalID, ServerID: ack.ID}
		if err = s.notifier.Broadcast(event); err != nil {
			// a lost broadcast only delays sibling re-reads
			log.Warn().Err(err).Str("local_id", record.LocalID).Msg("sync broadcast failed")
		}
	}

	result.Ok = result.Failed == 0
	log.Info().Int("pushed", result.Pushed).Int("failed", result.Failed).Msg("sync run finished")
	return result, nil
}

// pushWithRetry delivers one record, re-reading it before every attempt so
// edits made between retries are picked up. Transient delivery errors are
// retried with exponential backoff; a payload rejection stops immediately.
func (s *syncService) pushWithRetry(ctx context.Context, localID string) (models.ServerAck, error) {
	backoff := retry.WithMaxRetries(s.maxAttempts-1, retry.NewExponential(s.baseDelay))

	var ack models.ServerAck
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		record, err := s.records.GetByID(ctx, localID)
		if err != nil {
			return fmt.Errorf("reload record before push: %w", err)
		}

		ack, err = s.gateway.Push(ctx, codec.Encode(record))
		if err != nil {
			if adapter.Retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.ServerAck{}, err
	}
	return ack, nil
}
