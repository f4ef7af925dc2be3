// SPDX-License-Identifier: Apache-2.0

package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// blockingWorker tracks Run calls and blocks until its context is cancelled.
type blockingWorker struct {
	runCount atomic.Int32
}

func (m *blockingWorker) Run(ctx context.Context) {
	m.runCount.Add(1)
	<-ctx.Done()
}

func TestWorkers_Run_AllWorkersAreCalled(t *testing.T) {
	w1 := &blockingWorker{}
	w2 := &blockingWorker{}
	w3 := &blockingWorker{}

	ctx, cancel := context.WithCancel(context.Background())
	ws := NewWorkers(w1, w2, w3)
	ws.Run(ctx)

	deadline := time.After(time.Second)
	for {
		if w1.runCount.Load() == 1 && w2.runCount.Load() == 1 && w3.runCount.Load() == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("not every worker was started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	ws.Wait()
}

func TestWorkers_Run_Empty(t *testing.T) {
	ws := NewWorkers()

	// should not panic on an empty workers list
	ws.Run(context.Background())
	ws.Wait()
}
