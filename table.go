package rts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// table is a name-keyed registration table. Keys are compared without
// regard to case.
type table[V any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[string]V
}

func newTable[V any](kind string) *table[V] {
	return &table[V]{kind: kind, entries: make(map[string]V)}
}

func (t *table[V]) register(name string, value V) error {
	key := tableKey(name)
	if key == "" {
		return fmt.Errorf("rts: %s name must not be empty", t.kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.entries == nil {
		t.entries = make(map[string]V)
	}
	if _, exists := t.entries[key]; exists {
		return fmt.Errorf("rts: %s %q already registered", t.kind, name)
	}
	t.entries[key] = value
	return nil
}

func (t *table[V]) lookup(name string) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	value, ok := t.entries[tableKey(name)]
	return value, ok
}

func (t *table[V]) names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *table[V]) clone() *table[V] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := &table[V]{kind: t.kind, entries: make(map[string]V, len(t.entries))}
	for name, value := range t.entries {
		out.entries[name] = value
	}
	return out
}

func tableKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
