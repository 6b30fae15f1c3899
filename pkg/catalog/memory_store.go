package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	rts "github.com/goliatone/go-rts"
	"github.com/goliatone/go-rts/layering"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and programmatic catalogs. Every
// save gets a fresh revision, which doubles as the ETag.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	def  rts.Definition
	meta Meta
}

func NewMemoryStore(defs ...rts.Definition) *MemoryStore {
	s := &MemoryStore{records: map[string]memoryRecord{}}
	for _, def := range defs {
		_, _ = s.Save(context.Background(), def, Meta{})
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, name string) (rts.Definition, Meta, bool, error) {
	s.mu.RLock()
	record, ok := s.records[name]
	s.mu.RUnlock()
	if !ok {
		return rts.Definition{}, Meta{}, false, nil
	}
	return layering.Clone(record.def), record.meta, true, nil
}

func (s *MemoryStore) Save(_ context.Context, def rts.Definition, meta Meta) (Meta, error) {
	if def.Name == "" {
		return Meta{}, rts.ErrLayerNameRequired
	}
	revision := uuid.NewString()
	meta.Revision = revision
	meta.ETag = revision
	if meta.Source == "" {
		meta.Source = "memory"
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	s.records[def.Name] = memoryRecord{def: layering.Clone(def), meta: meta}
	s.mu.Unlock()
	return meta, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
