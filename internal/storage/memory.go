package storage

import (
	"context"
	"sync"

	"github.com/standardbeagle/cxxmodel/internal/types"
)

type memoryRecord struct {
	file types.FileID
	data []byte
}

// Memory keeps records in a map. It is the default backend and the one used
// by tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]memoryRecord)}
}

func (m *Memory) Put(_ context.Context, key string, file types.FileID, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = memoryRecord{file: file, data: cp}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.data, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *Memory) DeleteFile(_ context.Context, file types.FileID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, rec := range m.records {
		if rec.file == file {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Len(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]memoryRecord)
	return nil
}
