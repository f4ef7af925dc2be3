package notifier

import (
	"context"

	"github.com/mkalabin/calib-keeper/models"
)

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that drops every broadcast and never
// delivers events. Used when cross-instance notification is disabled.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Broadcast(models.SyncEvent) error { return nil }

func (noopNotifier) Subscribe(context.Context, func(models.SyncEvent)) error { return nil }

func (noopNotifier) Close() error { return nil }
