// Package trigger decides when the sync engine runs. Saves are debounced so
// a burst of edits produces one run, connectivity recovery and manual
// requests run immediately.
package trigger

import (
	"context"

	"github.com/mkalabin/calib-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/trigger_mock.go -package=mock

// State of the trigger policy, for display and tests.
type State string

const (
	StateIdle      State = "idle"
	StateScheduled State = "scheduled"
	StateRunning   State = "running"
)

// RunFunc executes one sync pass over the unsynced queue.
type RunFunc func(ctx context.Context) (models.SyncResult, error)

// SyncTrigger schedules sync runs. Implementations guarantee that a save
// arriving while a run is in progress schedules a follow-up run, so no saved
// record waits for the next unrelated trigger.
type SyncTrigger interface {
	// OnSave notes a local mutation. The run is delayed by the debounce
	// window; rapid successive saves coalesce into a single run.
	OnSave()

	// OnOnline notes an offline-to-online transition and runs immediately,
	// cancelling any pending debounce.
	OnOnline()

	// Manual runs a sync pass synchronously and returns its result.
	Manual(ctx context.Context) (models.SyncResult, error)

	// State reports the current trigger state.
	State() State

	// Close cancels pending runs and waits for an in-flight run to finish.
	Close()
}
