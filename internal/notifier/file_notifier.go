package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/mkalabin/calib-keeper/internal/logger"
	"github.com/mkalabin/calib-keeper/models"
)

const broadcastFileName = "sync-broadcast.json"

// envelope is the on-disk form of a broadcast. Instance identifies the
// publisher so receivers can drop their own events; Nonce deduplicates the
// multiple filesystem notifications a single publish can produce.
type envelope struct {
	Instance string           `json:"instance"`
	Nonce    string           `json:"nonce"`
	Event    models.SyncEvent `json:"event"`
}

type fileNotifier struct {
	dir      string
	path     string
	instance string
	logger   *logger.Logger

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	cancel    context.CancelFunc
	lastNonce string
	closed    bool
}

// NewFileNotifier creates a Notifier backed by a shared broadcast file in
// dir. Every instance sharing the same directory sees every broadcast.
func NewFileNotifier(dir string, log *logger.Logger) (Notifier, error) {
	if dir == "" {
		return nil, errors.New("broadcast directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create broadcast directory: %w", err)
	}

	return &fileNotifier{
		dir:      dir,
		path:     filepath.Join(dir, broadcastFileName),
		instance: uuid.NewString(),
		logger:   log,
	}, nil
}

// Broadcast implements [Notifier]. The envelope is written to a temp file and
// renamed into place so readers never observe a partial write.
func (n *fileNotifier) Broadcast(event models.SyncEvent) error {
	log := n.logger.With().Str("func", "Broadcast").Str("local_id", event.LocalID).Logger()

	data, err := json.Marshal(envelope{
		Instance: n.instance,
		Nonce:    uuid.NewString(),
		Event:    event,
	})
	if err != nil {
		return fmt.Errorf("marshal broadcast envelope: %w", err)
	}

	tmp := n.path + "." + n.instance + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write broadcast file: %w", err)
	}
	if err = os.Rename(tmp, n.path); err != nil {
		return fmt.Errorf("publish broadcast file: %w", err)
	}

	log.Debug().Str("event", event.Type).Msg("sync event broadcast")
	return nil
}

// Subscribe implements [Notifier].
func (n *fileNotifier) Subscribe(ctx context.Context, handler func(models.SyncEvent)) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return errors.New("notifier is closed")
	}
	if n.watcher != nil {
		return errors.New("already subscribed")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}
	if err = watcher.Add(n.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch broadcast directory: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	n.watcher = watcher
	n.cancel = cancel

	go n.watch(watchCtx, watcher, handler)
	return nil
}

func (n *fileNotifier) watch(ctx context.Context, watcher *fsnotify.Watcher, handler func(models.SyncEvent)) {
	log := n.logger.With().Str("func", "watch").Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case fsEvent, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(fsEvent.Name) != n.path {
				continue
			}
			if !fsEvent.Has(fsnotify.Create) && !fsEvent.Has(fsnotify.Write) && !fsEvent.Has(fsnotify.Rename) {
				continue
			}
			if event, ok := n.readEvent(); ok {
				handler(event)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("broadcast watcher error")
		}
	}
}

// readEvent loads the current broadcast file and reports whether it carries a
// fresh event from another instance.
func (n *fileNotifier) readEvent() (models.SyncEvent, bool) {
	log := n.logger.With().Str("func", "readEvent").Logger()

	data, err := os.ReadFile(n.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("read broadcast file")
		}
		return models.SyncEvent{}, false
	}

	var env envelope
	if err = json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Msg("malformed broadcast file")
		return models.SyncEvent{}, false
	}

	if env.Instance == n.instance {
		return models.SyncEvent{}, false
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if env.Nonce == n.lastNonce {
		return models.SyncEvent{}, false
	}
	n.lastNonce = env.Nonce

	return env.Event, true
}

// Close implements [Notifier]. Safe to call more than once.
func (n *fileNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true

	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	if n.watcher != nil {
		err := n.watcher.Close()
		n.watcher = nil
		return err
	}
	return nil
}
