// Package storagetest provides an in-memory storage.Store with switchable
// failures for tests.
package storagetest

import (
	"context"
	"sync"

	"github.com/Skotchmaster/levelup_storefront/internal/storage"
)

type Memory struct {
	mu   sync.Mutex
	data map[string]string

	// GetErr and SetErr, when set, are returned by every Get or Set/Delete.
	GetErr error
	SetErr error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, scope, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", m.GetErr
	}
	v, ok := m.data[scope+"/"+key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[scope+"/"+key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	delete(m.data, scope+"/"+key)
	return nil
}

// Raw returns the stored value without going through the error switches.
func (m *Memory) Raw(scope, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[scope+"/"+key]
	return v, ok
}

func (m *Memory) Put(scope, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[scope+"/"+key] = value
}
