package cache

import (
	"context"
	"slices"
	"sync"
)

// Cache is the query cache port.
type Cache interface {
	// Get returns the current value and whether it is still fresh.
	Get(key Key) (value any, fresh bool, ok bool)
	Set(key Key, value any)
	// Invalidate marks an entry stale so the next Fetch reloads it.
	Invalidate(key Key)
	Fetch(ctx context.Context, key Key, load Loader) (any, error)
}

// Loader produces the value for a key on a miss or after invalidation.
type Loader func(ctx context.Context) (any, error)

type entry struct {
	value any
	stale bool
}

// Memory is an in-process Cache safe for concurrent use.
//
// Every Set and Invalidate bumps a per-key generation. A Fetch whose load
// overlapped a bump does not publish its result as fresh, so a read racing
// an invalidation cannot restore the pre-invalidation value.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	gens    map[Key]uint64
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
	}
}

func (m *Memory) Get(key Key) (any, bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, false
	}
	return e.value, !e.stale, true
}

func (m *Memory) Set(key Key, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[key]++
	m.entries[key] = &entry{value: value}
}

// Invalidate on a missing key creates no entry, but still bumps the
// generation so an in-flight load for it is not stored as fresh.
func (m *Memory) Invalidate(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[key]++
	if e, ok := m.entries[key]; ok {
		e.stale = true
	}
}

// Fetch serves a fresh entry or runs load and stores its result. A failed load
// leaves any previous entry in place, still marked stale. When the key was
// set or invalidated while load ran, the result is returned to this caller
// only: an entry written meanwhile is kept, otherwise the result is stored stale.
func (m *Memory) Fetch(ctx context.Context, key Key, load Loader) (any, error) {
	m.mu.RLock()
	gen := m.gens[key]
	if e, ok := m.entries[key]; ok && !e.stale {
		m.mu.RUnlock()
		return e.value, nil
	}
	m.mu.RUnlock()

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[key] == gen {
		m.gens[key]++
		m.entries[key] = &entry{value: v}
		return v, nil
	}
	if _, ok := m.entries[key]; !ok {
		m.entries[key] = &entry{value: v, stale: true}
	}
	return v, nil
}

// Keys returns all keys in Compare order.
func (m *Memory) Keys() []Key {
	m.mu.RLock()
	keys := make([]Key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	slices.SortFunc(keys, Key.Compare)
	return keys
}
