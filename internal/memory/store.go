// Package memory keeps the named facts that are injected into every prompt
// and persists them after each change.
package memory

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotFound is returned when a key is not in the store.
var ErrNotFound = errors.New("memory key not found")

// Entry is one remembered fact.
type Entry struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Store is an insertion-ordered mapping from key to description. Overwriting
// a key keeps its original position. Store is not safe for concurrent use;
// Book serializes access.
type Store struct {
	keys []string
	desc map[string]string
}

// NewStore returns a store holding entries in order. Later duplicates
// overwrite earlier ones.
func NewStore(entries ...Entry) *Store {
	s := &Store{desc: make(map[string]string, len(entries))}
	for _, e := range entries {
		s.Put(e.Key, e.Description)
	}
	return s
}

func (s *Store) Put(key, description string) {
	if _, ok := s.desc[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.desc[key] = description
}

func (s *Store) Delete(key string) error {
	if _, ok := s.desc[key]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	delete(s.desc, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	return nil
}

func (s *Store) Get(key string) (string, error) {
	d, ok := s.desc[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return d, nil
}

// All returns a copy of the entries in insertion order.
func (s *Store) All() []Entry {
	out := make([]Entry, len(s.keys))
	for i, k := range s.keys {
		out[i] = Entry{Key: k, Description: s.desc[k]}
	}
	return out
}

// Descriptions returns the descriptions in insertion order.
func (s *Store) Descriptions() []string {
	out := make([]string, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.desc[k]
	}
	return out
}

func (s *Store) Len() int { return len(s.keys) }

func (s *Store) clone() *Store {
	return NewStore(s.All()...)
}
