package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"fitsync/internal/fit"
)

// Probe reports whether the remote side is currently reachable.
type Probe interface {
	Reachable(ctx context.Context) bool
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context) bool

func (f ProbeFunc) Reachable(ctx context.Context) bool { return f(ctx) }

// DialProbe opens and immediately closes a TCP connection to Address.
type DialProbe struct {
	Address string
	Timeout time.Duration
}

func (p DialProbe) Reachable(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// RemoteProbe asks the remote service itself.
type RemoteProbe struct {
	Remote fit.RemoteService
}

func (p RemoteProbe) Reachable(ctx context.Context) bool {
	return p.Remote.CheckConnection(ctx)
}

// StaticProbe returns whatever was last set. Safe for concurrent use.
type StaticProbe struct {
	mu     sync.Mutex
	online bool
}

func NewStaticProbe(online bool) *StaticProbe {
	return &StaticProbe{online: online}
}

func (p *StaticProbe) Set(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = online
}

func (p *StaticProbe) Reachable(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}
