// SPDX-License-Identifier: Apache-2.0

package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mkalabin/calib-keeper/internal/adapter"
	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/internal/mock"
)

type countingHook struct {
	calls atomic.Int32
}

func (h *countingHook) OnOnline() { h.calls.Add(1) }

func TestConnectivityProbe_FiresOnRecovery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGateway := mock.NewMockServerGateway(ctrl)
	hook := &countingHook{}

	// offline for the first two probes, then reachable
	gomock.InOrder(
		mockGateway.EXPECT().Ping(gomock.Any()).Return(adapter.ErrUnavailable),
		mockGateway.EXPECT().Ping(gomock.Any()).Return(adapter.ErrUnavailable),
		mockGateway.EXPECT().Ping(gomock.Any()).Return(nil).MinTimes(1),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := NewConnectivityProbe(mockGateway, hook, 10*time.Millisecond, logger.Nop())
	go probe.Run(ctx)

	require.Eventually(t, func() bool { return hook.calls.Load() == 1 },
		time.Second, 5*time.Millisecond, "recovery must fire the hook exactly once")

	// staying online must not fire again
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), hook.calls.Load())
}

func TestConnectivityProbe_OnlineAtStartupFiresImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGateway := mock.NewMockServerGateway(ctrl)
	hook := &countingHook{}

	mockGateway.EXPECT().Ping(gomock.Any()).Return(nil).MinTimes(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := NewConnectivityProbe(mockGateway, hook, time.Hour, logger.Nop())
	go probe.Run(ctx)

	require.Eventually(t, func() bool { return hook.calls.Load() == 1 },
		time.Second, 5*time.Millisecond)
}

func TestConnectivityProbe_RepeatedRecoveries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockGateway := mock.NewMockServerGateway(ctrl)
	hook := &countingHook{}

	gomock.InOrder(
		mockGateway.EXPECT().Ping(gomock.Any()).Return(nil),
		mockGateway.EXPECT().Ping(gomock.Any()).Return(adapter.ErrUnavailable),
		mockGateway.EXPECT().Ping(gomock.Any()).Return(nil).MinTimes(1),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := NewConnectivityProbe(mockGateway, hook, 10*time.Millisecond, logger.Nop())
	go probe.Run(ctx)

	require.Eventually(t, func() bool { return hook.calls.Load() == 2 },
		time.Second, 5*time.Millisecond, "each recovery fires the hook")
}
