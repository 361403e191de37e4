// Package prefs stores the presentation layer's preferences record.
// The record is an opaque JSON object; the bridge only relies on the
// usageCount field, which callers bump after each finished action.
package prefs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"enginebridge/cli/internal/xdg"
)

// UsageCountKey is the field IncrementUsage maintains.
const UsageCountKey = "usageCount"

// Record is the stored preferences object.
type Record map[string]any

// Defaults is returned when no readable record exists.
func Defaults() Record {
	return Record{UsageCountKey: 0}
}

// UsageCount returns the record's usage counter, tolerating JSON numbers.
func (r Record) UsageCount() int {
	switch v := r[UsageCountKey].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

// Store reads and writes the record at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns the store at <config dir>/preferences.json.
func Open() (*Store, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, "preferences.json")), nil
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store { return &Store{path: path} }

// Get returns the stored record. A missing or corrupt file yields Defaults.
func (s *Store) Get() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get()
}

func (s *Store) get() (Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil || r == nil {
		return Defaults(), nil
	}
	return r, nil
}

// Set replaces the stored record.
func (s *Store) Set(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(r)
}

func (s *Store) set(r Record) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

// IncrementUsage bumps usageCount and returns the new value.
func (s *Store) IncrementUsage() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get()
	if err != nil {
		return 0, err
	}
	n := r.UsageCount() + 1
	r[UsageCountKey] = n
	return n, s.set(r)
}
