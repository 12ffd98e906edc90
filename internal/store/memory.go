package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory is an in-process Backend.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record), now: time.Now}
}

func (m *Memory) Get(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound(id)
	}
	return rec, nil
}

func (m *Memory) Put(ctx context.Context, id, code string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.records[id]
	rec.ID = id
	rec.Code = code
	rec.UpdatedAt = m.now()
	m.records[id] = rec
	return rec, nil
}

func (m *Memory) Create(ctx context.Context, id, code string) (Record, error) {
	id, err := createID(id)
	if err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; ok {
		return Record{}, ErrExists(id)
	}
	rec := Record{ID: id, Code: code, OriginalCode: code, HasOriginal: true, UpdatedAt: m.now()}
	m.records[id] = rec
	return rec, nil
}

func (m *Memory) Reset(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound(id)
	}
	if !rec.HasOriginal {
		return Record{}, ErrNoOriginal(id)
	}
	rec.Code = rec.OriginalCode
	rec.UpdatedAt = m.now()
	m.records[id] = rec
	return rec, nil
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *Memory) Close() error { return nil }
