package dashboard

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HealthChecker probes the gateway. Implementations bound the probe with
// their own timeout.
type HealthChecker interface {
	Health(ctx context.Context) bool
}

// Monitor records the result of the mount-time health probe.
type Monitor struct {
	api    HealthChecker
	toasts *Toasts
	log    zerolog.Logger

	connected atomic.Bool
}

// NewMonitor returns a Monitor that starts disconnected.
func NewMonitor(api HealthChecker, toasts *Toasts) *Monitor {
	return &Monitor{
		api:    api,
		toasts: toasts,
		log:    log.With().Str("component", "connectivity").Logger(),
	}
}

// Probe issues a single health check. A failure shows one warning toast.
func (m *Monitor) Probe(ctx context.Context) bool {
	ok := m.api.Health(ctx)
	m.connected.Store(ok)
	if !ok {
		m.log.Warn().Msg("gateway health probe failed")
		m.toasts.Warn(msgDisconnected)
		return false
	}
	m.log.Debug().Msg("gateway reachable")
	return true
}

// Connected reports the last probe result.
func (m *Monitor) Connected() bool { return m.connected.Load() }

// Disconnect marks the gateway unreachable without probing.
func (m *Monitor) Disconnect() { m.connected.Store(false) }
