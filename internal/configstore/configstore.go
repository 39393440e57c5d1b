// Package configstore is the process-wide key/value configuration surface.
// The dispatcher reads oversight contacts from here at dispatch time so
// contact changes take effect without a restart.
package configstore

import (
	"context"
	"sync"

	"vigil/pkg/platform/sentinel"
)

// Keys read by this subsystem.
const (
	KeyOversightEmail = "oversight.contact.email"
	KeyOversightPhone = "oversight.contact.phone"
)

// Store reads configuration values. Missing keys return sentinel.ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
}

// Memory is a map-backed store for tests and redis-less deployments.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return v, nil
}

// Set stores a value. Test helper; production config is written elsewhere.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}
