package connectivity

import (
	"context"
	"sync"
	"time"

	"fitsync/internal/fit"
)

const eventBuffer = 16

// Monitor tracks reachability and emits an event on every transition.
// Repeated identical observations emit nothing.
type Monitor struct {
	probe    Probe
	interval time.Duration
	logger   fit.Logger

	mu     sync.RWMutex
	online bool
	events chan fit.ConnectivityEvent
}

var _ fit.Connectivity = (*Monitor)(nil)

// NewMonitor creates a monitor that starts out offline until Init or the
// first probe says otherwise.
func NewMonitor(probe Probe, interval time.Duration, logger fit.Logger) *Monitor {
	if logger == nil {
		logger = fit.NewNopLogger()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		logger:   logger,
		events:   make(chan fit.ConnectivityEvent, eventBuffer),
	}
}

// Init takes the initial state from the probe without emitting an event.
func (m *Monitor) Init(ctx context.Context) bool {
	online := m.probe.Reachable(ctx)
	m.mu.Lock()
	m.online = online
	m.mu.Unlock()
	m.logger.Debug("connectivity initialized", "online", online)
	return online
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Events returns the transition stream. It is never closed.
func (m *Monitor) Events() <-chan fit.ConnectivityEvent {
	return m.events
}

// Set records an observation, emitting an event if it changes the state.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online == online {
		return
	}
	m.online = online

	ev := fit.WentOffline
	if online {
		ev = fit.WentOnline
	}
	m.logger.Info("connectivity changed", "event", ev.String())
	m.emit(ev)
}

// Check probes once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	online := m.probe.Reachable(ctx)
	if ctx.Err() != nil {
		return m.Online()
	}
	m.Set(online)
	return online
}

// Run probes every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// emit never blocks; when the buffer is full the oldest event is dropped.
// Callers hold m.mu so events leave in state order.
func (m *Monitor) emit(ev fit.ConnectivityEvent) {
	for {
		select {
		case m.events <- ev:
			return
		default:
		}
		select {
		case <-m.events:
		default:
		}
	}
}
