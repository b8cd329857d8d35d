package queue

import "fitsync/internal/fit"

// localStore mirrors the queue into the local cache under
// fit.KeyPendingChanges after every mutation, so queued changes survive a
// restart. Writes go through the non-throwing cache: if the backing store
// fails, the queue keeps working from memory for the rest of the session.
type localStore struct {
	memoryStore
	cache *fit.LocalCache
}

var _ queueStore = (*localStore)(nil)

func newLocalStore(cache *fit.LocalCache) *localStore {
	changes := fit.Get(cache, fit.KeyPendingChanges, []fit.PendingChange{})
	return &localStore{
		memoryStore: memoryStore{changes: changes},
		cache:       cache,
	}
}

func (l *localStore) Append(change fit.PendingChange) error {
	if err := l.memoryStore.Append(change); err != nil {
		return err
	}
	l.persist()
	return nil
}

func (l *localStore) RemoveKey(key fit.ChangeKey) (bool, error) {
	removed, err := l.memoryStore.RemoveKey(key)
	if removed {
		l.persist()
	}
	return removed, err
}

func (l *localStore) RemoveSeq(key fit.ChangeKey, seq uint64) (bool, error) {
	removed, err := l.memoryStore.RemoveSeq(key, seq)
	if removed {
		l.persist()
	}
	return removed, err
}

func (l *localStore) persist() {
	l.cache.Set(fit.KeyPendingChanges, l.changes)
}

// NewLocalQueue creates a queue mirrored into cache, restoring any changes
// left from a previous session.
func NewLocalQueue(cache *fit.LocalCache) *Queue {
	return newQueue(newLocalStore(cache))
}
