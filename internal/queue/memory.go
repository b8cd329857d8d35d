package queue

import "fitsync/internal/fit"

// memoryStore keeps the queue for the lifetime of the process only.
type memoryStore struct {
	changes []fit.PendingChange
}

var _ queueStore = (*memoryStore)(nil)

func (m *memoryStore) Append(change fit.PendingChange) error {
	m.changes = append(m.changes, change)
	return nil
}

func (m *memoryStore) RemoveKey(key fit.ChangeKey) (bool, error) {
	return m.remove(func(c fit.PendingChange) bool { return c.Key() == key }), nil
}

func (m *memoryStore) RemoveSeq(key fit.ChangeKey, seq uint64) (bool, error) {
	return m.remove(func(c fit.PendingChange) bool { return c.Key() == key && c.Seq == seq }), nil
}

func (m *memoryStore) List() ([]fit.PendingChange, error) {
	out := make([]fit.PendingChange, len(m.changes))
	copy(out, m.changes)
	return out, nil
}

func (m *memoryStore) Len() (int, error) {
	return len(m.changes), nil
}

func (m *memoryStore) remove(match func(fit.PendingChange) bool) bool {
	kept := m.changes[:0]
	removed := false
	for _, c := range m.changes {
		if match(c) {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	// Clear the tail so dropped payloads can be collected.
	for i := len(kept); i < len(m.changes); i++ {
		m.changes[i] = fit.PendingChange{}
	}
	m.changes = kept
	return removed
}

// NewMemoryQueue creates a queue that is lost when the process exits.
func NewMemoryQueue() *Queue {
	return newQueue(&memoryStore{})
}
