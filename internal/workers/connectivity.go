package workers

import (
	"context"
	"time"

	"github.com/mkalabin/calib-keeper/internal/adapter"
	"github.com/mkalabin/calib-keeper/internal/logger"
)

type connectivityProbe struct {
	gateway  adapter.ServerGateway
	hook     OnlineHook
	interval time.Duration
	logger   *logger.Logger
}

// NewConnectivityProbe creates a worker that pings the server every interval
// and notifies hook on each offline-to-online transition. The probe starts
// assuming offline, so a reachable server fires the hook on the first ping
// and drains any queue left over from the previous session.
func NewConnectivityProbe(gateway adapter.ServerGateway, hook OnlineHook, interval time.Duration, log *logger.Logger) Worker {
	return &connectivityProbe{
		gateway:  gateway,
		hook:     hook,
		interval: interval,
		logger:   log,
	}
}

// Run implements [Worker].
func (p *connectivityProbe) Run(ctx context.Context) {
	log := p.logger.With().Str("func", "Run").Logger()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	online := false
	probe := func() {
		err := p.gateway.Ping(ctx)
		reachable := err == nil

		if reachable && !online {
			log.Info().Msg("server reachable, scheduling sync")
			p.hook.OnOnline()
		}
		if !reachable && online {
			log.Info().Err(err).Msg("server unreachable, sync paused")
		}
		online = reachable
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
