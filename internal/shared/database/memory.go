package database

import (
	"sort"
	"sync"
)

// Memory is an in-process stand-in for postgres used by tests.
// Every Tx runs under one lock, so reads and writes inside it are atomic.
type Memory struct {
	mu        sync.Mutex
	tables    map[string]map[string]any
	sequences map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		tables:    make(map[string]map[string]any),
		sequences: make(map[string]int),
	}
}

// MemoryTx is the view of Memory handed to a Tx callback. It must not escape the callback.
type MemoryTx struct {
	m *Memory
}

// Tx runs fn with exclusive access to the store.
func (m *Memory) Tx(fn func(tx *MemoryTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&MemoryTx{m: m})
}

func (tx *MemoryTx) table(name string) map[string]any {
	t, ok := tx.m.tables[name]
	if !ok {
		t = make(map[string]any)
		tx.m.tables[name] = t
	}
	return t
}

func (tx *MemoryTx) Put(table, key string, row any) {
	tx.table(table)[key] = row
}

func (tx *MemoryTx) Exists(table, key string) bool {
	_, ok := tx.table(table)[key]
	return ok
}

func (tx *MemoryTx) Delete(table, key string) bool {
	t := tx.table(table)
	if _, ok := t[key]; !ok {
		return false
	}
	delete(t, key)
	return true
}

// NextID returns the next value of the table's sequence. Values are never reused.
func (tx *MemoryTx) NextID(table string) int {
	tx.m.sequences[table]++
	return tx.m.sequences[table]
}

// Get loads a typed row.
func Get[T any](tx *MemoryTx, table, key string) (T, bool) {
	row, ok := tx.table(table)[key]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := row.(T)
	return typed, ok
}

// Select returns the typed rows of table matching keep, ordered by key.
func Select[T any](tx *MemoryTx, table string, keep func(T) bool) []T {
	t := tx.table(table)
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []T
	for _, k := range keys {
		row, ok := t[k].(T)
		if ok && keep(row) {
			out = append(out, row)
		}
	}
	return out
}
