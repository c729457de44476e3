// file: internal/database/mock_store.go
// version: 1.2.0
// guid: 3a2b1c0d-9e8f-4a7b-6c5d-4e3f2a1b0c9d

package database

import (
	"sync"
)

// MockStore is an in-memory Store for tests. Failure injection lets tests
// exercise the "substrate write failed, nothing persisted" path.
type MockStore struct {
	mu   sync.Mutex
	data map[string][]byte

	// When set, the corresponding operation returns this error.
	GetErr    error
	SetErr    error
	DeleteErr error
}

// NewMockStore returns an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MockStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MockStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.data, key)
	return nil
}

func (m *MockStore) GetAll() (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		c := make([]byte, len(v))
		copy(c, v)
		out[k] = c
	}
	return out, nil
}

func (m *MockStore) Close() error { return nil }

// Keys returns the current key set, for assertions.
func (m *MockStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out
}
