package session

import (
	"sort"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore holds snapshots in a map. Contents die with the process.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

func (m *MemoryStore) Get(threadID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	snapshot, ok := m.data[threadID]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(snapshot))
	copy(result, snapshot)

	return result, nil
}

func (m *MemoryStore) Put(threadID string, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	stored := make([]byte, len(snapshot))
	copy(stored, snapshot)
	m.data[threadID] = stored

	return nil
}

func (m *MemoryStore) Delete(threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.data, threadID)

	return nil
}

func (m *MemoryStore) Threads() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	threads := make([]string, 0, len(m.data))
	for id := range m.data {
		threads = append(threads, id)
	}
	sort.Strings(threads)

	return threads, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil

	return nil
}
