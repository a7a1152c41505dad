package store

import (
	"context"
	"sync"

	"github.com/diagram-to-compose/composer/internal/topology"
)

// Memory keeps the document in process memory only.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (topology.Topology, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return topology.Topology{}, ErrNotFound
	}
	return decode(m.data)
}

func (m *Memory) Save(_ context.Context, t topology.Topology) error {
	data, err := topology.Marshal(t)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
