// Package memory provides an in-process record store used by tests and the
// example scenario.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/quayside/stockflow/pkg/recordstore"
)

// Store is an in-memory record store
type Store struct {
	mu      sync.RWMutex
	records map[recordstore.EntityType][]recordstore.Record
	nextID  int64
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		records: make(map[recordstore.EntityType][]recordstore.Record),
		nextID:  1,
	}
}

// Verify interface compliance
var _ recordstore.Store = (*Store)(nil)

// Find returns copies of all records matching the query
func (s *Store) Find(ctx context.Context, entity recordstore.EntityType, query recordstore.Query) ([]recordstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := query.Apply(s.records[entity])
	out := make([]recordstore.Record, 0, len(matched))
	for _, rec := range matched {
		out = append(out, maps.Clone(rec))
	}
	return out, nil
}

// Create inserts a record, assigning an id when the caller supplied none
func (s *Store) Create(ctx context.Context, entity recordstore.EntityType, fields recordstore.Record) (recordstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := maps.Clone(fields)
	if rec.ID() == "" {
		rec["id"] = fmt.Sprintf("%d", s.nextID)
		s.nextID++
	}
	s.records[entity] = append(s.records[entity], rec)
	return maps.Clone(rec), nil
}

// Update merges fields into the identified record. When guards are given the
// write only happens if every guard still matches, otherwise ErrConflict.
func (s *Store) Update(ctx context.Context, entity recordstore.EntityType, id string, fields recordstore.Record, guards ...recordstore.Predicate) (recordstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records[entity] {
		if rec.ID() != id {
			continue
		}
		for _, guard := range guards {
			if !guard.Matches(rec) {
				return nil, recordstore.ErrConflict
			}
		}
		updated := maps.Clone(rec)
		for k, v := range fields {
			if k == "id" {
				continue
			}
			updated[k] = v
		}
		s.records[entity][i] = updated
		return maps.Clone(updated), nil
	}
	return nil, recordstore.ErrNotFound
}

// Delete removes all records matching the query
func (s *Store) Delete(ctx context.Context, entity recordstore.EntityType, query recordstore.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[entity][:0]
	for _, rec := range s.records[entity] {
		if !query.Matches(rec) {
			kept = append(kept, rec)
		}
	}
	s.records[entity] = kept
	return nil
}
