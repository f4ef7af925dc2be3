package workers

import (
	"context"
	"sync"
)

// Workers runs a set of workers, each in its own goroutine.
type Workers struct {
	workers []Worker
	wg      sync.WaitGroup
}

// NewWorkers aggregates ws into a single runnable unit.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Run launches every worker and returns immediately.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		w.wg.Add(1)
		go func(wk Worker) {
			defer w.wg.Done()
			wk.Run(ctx)
		}(worker)
	}
}

// Wait blocks until every worker has returned. Workers return when the Run
// context is cancelled.
func (w *Workers) Wait() {
	w.wg.Wait()
}
