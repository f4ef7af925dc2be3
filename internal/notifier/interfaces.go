// Package notifier propagates sync events between running client instances
// that share one local store. Events are a cache-invalidation hint only;
// receivers re-read the store and never apply the event payload as state.
package notifier

import (
	"context"

	"github.com/mkalabin/calib-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/notifier_mock.go -package=mock

// Notifier broadcasts sync events to sibling instances and delivers theirs.
type Notifier interface {
	// Broadcast announces event to every other instance. Failures are
	// non-fatal for the caller: a lost broadcast only delays a re-read.
	Broadcast(event models.SyncEvent) error

	// Subscribe starts delivering events broadcast by other instances to
	// handler until ctx is cancelled or Close is called. Events published
	// by this instance are filtered out. At most one subscription per
	// notifier.
	Subscribe(ctx context.Context, handler func(models.SyncEvent)) error

	// Close stops the subscription and releases the underlying watcher.
	Close() error
}
