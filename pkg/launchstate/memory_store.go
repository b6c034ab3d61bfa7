package launchstate

import cmap "github.com/orcaman/concurrent-map/v2"

// MemoryStore is a process-local Store.
type MemoryStore struct {
	prefs cmap.ConcurrentMap[string, bool]
}

// NewMemoryStore creates a MemoryStore, optionally already marked as registered.
func NewMemoryStore(registered bool) *MemoryStore {
	m := &MemoryStore{prefs: cmap.New[bool]()}
	if registered {
		m.prefs.Set(HasLaunchedBeforeKey, true)
	}
	return m
}

func (m *MemoryStore) HasCompletedRegistration() (bool, error) {
	v, _ := m.prefs.Get(HasLaunchedBeforeKey)
	return v, nil
}

func (m *MemoryStore) MarkRegistered() error {
	m.prefs.Set(HasLaunchedBeforeKey, true)
	return nil
}
