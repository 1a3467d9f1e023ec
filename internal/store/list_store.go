package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nhle/listmailer/internal/model"
)

// Preview is a read-only projection of a saved list for display.
type Preview struct {
	Name string

	// Headers are the first record's keys in order, without "id".
	Headers    []string
	Records    []model.Record
	Duplicates []string
	Blocked    []string
}

// ListStore keeps the saved lists in memory and writes the whole collection
// to the kv table after every mutation.
type ListStore struct {
	kv KV

	mu    sync.RWMutex
	lists []model.List
}

// NewListStore returns an empty ListStore backed by kv. Call Load to read
// previously saved lists.
func NewListStore(kv KV) *ListStore {
	return &ListStore{kv: kv}
}

// Load replaces the in-memory lists with the persisted ones. A missing key
// yields an empty store.
func (s *ListStore) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, KeySavedLists)
	if err != nil {
		return fmt.Errorf("loading saved lists: %w", err)
	}

	var lists []model.List
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &lists); err != nil {
			return fmt.Errorf("decoding saved lists: %w", err)
		}
	}

	s.mu.Lock()
	s.lists = lists
	s.mu.Unlock()
	return nil
}

// Create appends a new list and persists the store.
func (s *ListStore) Create(
	ctx context.Context, name string, data []model.Record, duplicates, blocked []string,
) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyListName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(name) >= 0 {
		return fmt.Errorf("creating list %q: %w", name, ErrDuplicateListName)
	}

	next := make([]model.List, len(s.lists), len(s.lists)+1)
	copy(next, s.lists)
	next = append(next, model.List{
		Name:       name,
		Data:       nonNilRecords(data),
		Duplicates: nonNilStrings(duplicates),
		Blocked:    nonNilStrings(blocked),
	})

	return s.commitLocked(ctx, next)
}

// Edit replaces the name and data of the list at index. Its duplicate and
// blocked metadata are kept.
func (s *ListStore) Edit(ctx context.Context, index int, name string, data []model.Record) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyListName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.lists) {
		return fmt.Errorf("editing list %d: %w", index, ErrListNotFound)
	}
	if i := s.indexOfLocked(name); i >= 0 && i != index {
		return fmt.Errorf("renaming list to %q: %w", name, ErrDuplicateListName)
	}

	next := make([]model.List, len(s.lists))
	copy(next, s.lists)
	next[index] = model.List{
		Name:       name,
		Data:       nonNilRecords(data),
		Duplicates: s.lists[index].Duplicates,
		Blocked:    s.lists[index].Blocked,
	}

	return s.commitLocked(ctx, next)
}

// Delete removes the list at index. Removing the last list deletes the key
// so nothing reappears on the next Load.
func (s *ListStore) Delete(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.lists) {
		return fmt.Errorf("deleting list %d: %w", index, ErrListNotFound)
	}

	next := make([]model.List, 0, len(s.lists)-1)
	next = append(next, s.lists[:index]...)
	next = append(next, s.lists[index+1:]...)

	return s.commitLocked(ctx, next)
}

// Preview returns the display projection of the list at index.
func (s *ListStore) Preview(index int) (Preview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.lists) {
		return Preview{}, fmt.Errorf("previewing list %d: %w", index, ErrListNotFound)
	}

	l := s.lists[index].Clone()
	return Preview{
		Name:       l.Name,
		Headers:    model.DisplayHeaders(l.Headers()),
		Records:    l.Data,
		Duplicates: l.Duplicates,
		Blocked:    l.Blocked,
	}, nil
}

// All returns a deep copy of every list in insertion order.
func (s *ListStore) All() []model.List {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.List, len(s.lists))
	for i, l := range s.lists {
		out[i] = l.Clone()
	}
	return out
}

// Len returns the number of saved lists.
func (s *ListStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists)
}

// Find returns the index of the list called name, ignoring case.
func (s *ListStore) Find(name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOfLocked(strings.TrimSpace(name)); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("finding list %q: %w", name, ErrListNotFound)
}

func (s *ListStore) indexOfLocked(name string) int {
	for i, l := range s.lists {
		if strings.EqualFold(l.Name, name) {
			return i
		}
	}
	return -1
}

// commitLocked persists next and, on success, makes it the current state.
func (s *ListStore) commitLocked(ctx context.Context, next []model.List) error {
	if len(next) == 0 {
		if err := s.kv.Delete(ctx, KeySavedLists); err != nil {
			return fmt.Errorf("saving lists: %w", err)
		}
		s.lists = nil
		return nil
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding lists: %w", err)
	}
	if err := s.kv.Set(ctx, KeySavedLists, string(raw)); err != nil {
		return fmt.Errorf("saving lists: %w", err)
	}
	s.lists = next
	return nil
}

func nonNilRecords(r []model.Record) []model.Record {
	if r == nil {
		return []model.Record{}
	}
	return r
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
