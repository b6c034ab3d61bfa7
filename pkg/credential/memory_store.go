package credential

import cmap "github.com/orcaman/concurrent-map/v2"

// MemoryStore is a process-local Store, used when no secure storage is configured.
type MemoryStore struct {
	entries cmap.ConcurrentMap[string, []byte]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: cmap.New[[]byte]()}
}

func (m *MemoryStore) Save(key string, data []byte) error {
	m.entries.Set(key, append([]byte(nil), data...))
	return nil
}

func (m *MemoryStore) Load(key string) ([]byte, error) {
	data, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Delete(key string) error {
	m.entries.Remove(key)
	return nil
}
