// Package store persists small keyed payloads such as the size manager's
// saved state. Absent keys are not errors.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store is a key-value persistence slot.
type Store interface {
	// Load returns the payload stored under key and whether it exists.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	// Save replaces the payload under key.
	Save(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases underlying resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open constructs a store for a configured driver. path is a directory for
// the file driver and a database file for sqlite; memory ignores it.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(path)
	case DriverSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(v))
	copy(out, v)

	return out, true, nil
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, key string, data []byte) error {
	v := make([]byte, len(data))
	copy(v, data)

	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()

	return nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
