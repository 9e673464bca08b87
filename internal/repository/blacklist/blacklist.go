// Package blacklist persists the set of registry identifiers excluded from
// all future reads because they were judged duplicates. The set is loaded
// once at process start and mirrored in memory; every addition writes
// through to the store.
package blacklist

import (
	"context"
	"fmt"
	"sync"
)

const setKey = "poidex:blacklist"

// store is the consumer interface for the blacklist (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Set is the in-memory mirror of the persisted blacklist. Safe for
// concurrent use.
type Set struct {
	store store

	mu  sync.RWMutex
	ids map[string]struct{}
}

// New creates an empty, unloaded blacklist.
func New(s store) *Set {
	return &Set{store: s, ids: make(map[string]struct{})}
}

// Load replaces the in-memory mirror with the persisted set.
func (s *Set) Load(ctx context.Context) error {
	members, err := s.store.SMembers(ctx, setKey)
	if err != nil {
		return fmt.Errorf("load blacklist: %w", err)
	}

	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m] = struct{}{}
	}

	s.mu.Lock()
	s.ids = ids
	s.mu.Unlock()
	return nil
}

// Add persists an excluded identifier and updates the mirror. The mirror is
// only updated when the write succeeds, so a re-discovered duplicate cannot
// be silently dropped without durable exclusion.
func (s *Set) Add(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.store.SAdd(ctx, setKey, id); err != nil {
		return fmt.Errorf("blacklist %s: %w", id, err)
	}

	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Contains reports whether the identifier is excluded.
func (s *Set) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of excluded identifiers.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
