package testutil

import (
	"sync"
)

// StaticConnectivity is a fit.Connectivity whose answer the test controls.
type StaticConnectivity struct {
	mu     sync.Mutex
	online bool
}

func NewStaticConnectivity(online bool) *StaticConnectivity {
	return &StaticConnectivity{online: online}
}

func (c *StaticConnectivity) Set(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}

func (c *StaticConnectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}
