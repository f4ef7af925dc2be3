package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/models"
)

type debouncedTrigger struct {
	run      RunFunc
	debounce time.Duration
	logger   *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timer   *time.Timer
	state   State
	running bool
	rerun   bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDebouncedTrigger creates a SyncTrigger that invokes run according to the
// trigger policy. Background runs inherit ctx; cancelling it stops them.
func NewDebouncedTrigger(ctx context.Context, run RunFunc, debounce time.Duration, log *logger.Logger) SyncTrigger {
	runCtx, cancel := context.WithCancel(ctx)
	return &debouncedTrigger{
		run:      run,
		debounce: debounce,
		logger:   log,
		ctx:      runCtx,
		cancel:   cancel,
		state:    StateIdle,
	}
}

// OnSave implements [SyncTrigger].
func (t *debouncedTrigger) OnSave() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	if t.timer != nil {
		t.timer.Reset(t.debounce)
		return
	}

	if !t.running {
		t.state = StateScheduled
	}
	t.timer = time.AfterFunc(t.debounce, t.fire)
}

// OnOnline implements [SyncTrigger].
func (t *debouncedTrigger) OnOnline() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	t.fire()
}

// Manual implements [SyncTrigger]. It bypasses scheduling entirely; overlap
// with a background run is resolved by the engine's busy guard.
func (t *debouncedTrigger) Manual(ctx context.Context) (models.SyncResult, error) {
	return t.run(ctx)
}

// State implements [SyncTrigger].
func (t *debouncedTrigger) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// fire transitions a scheduled run into execution. A run requested while one
// is already in flight is remembered and executed right after.
func (t *debouncedTrigger) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.timer = nil

	if t.running {
		t.rerun = true
		t.state = StateScheduled
		return
	}

	t.running = true
	t.state = StateRunning
	t.wg.Add(1)
	go t.runLoop()
}

func (t *debouncedTrigger) runLoop() {
	defer t.wg.Done()
	log := t.logger.With().Str("func", "runLoop").Logger()

	for {
		result, err := t.run(t.ctx)
		if err != nil {
			log.Warn().Err(err).Msg("sync run failed")
		} else {
			log.Debug().Int("pushed", result.Pushed).Int("failed", result.Failed).Msg("sync run finished")
		}

		t.mu.Lock()
		if t.rerun && !t.closed {
			t.rerun = false
			t.state = StateRunning
			t.mu.Unlock()
			continue
		}
		t.running = false
		t.state = StateIdle
		t.mu.Unlock()
		return
	}
}

// Close implements [SyncTrigger].
func (t *debouncedTrigger) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.rerun = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
}
