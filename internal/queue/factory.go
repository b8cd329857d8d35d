package queue

import (
	"fitsync/internal/config"
	"fitsync/internal/fit"
)

// NewQueueFromConfig creates the pending-change queue. By default the queue
// is mirrored into the local cache; persist = false keeps it in memory only.
func NewQueueFromConfig(cfg config.QueueConfig, cache *fit.LocalCache) *Queue {
	if cfg.Persist != nil && !*cfg.Persist {
		return NewMemoryQueue()
	}
	return NewLocalQueue(cache)
}
