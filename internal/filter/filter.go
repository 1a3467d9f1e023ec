// Package filter partitions imported records into retained, duplicate and
// blocked sets by their case-folded email address.
package filter

import (
	"strings"

	"github.com/nhle/listmailer/internal/model"
)

// staticBlocked is the built-in blocked address catalog.
var staticBlocked = []string{
	"Sophie_DuBuque67@yahoo.com",
	"Elias.Reichel@gmail.com",
	"ivian.Schimmel85@yahoo.com",
}

// BlockedSet is a set of lower-cased addresses that are never retained.
type BlockedSet map[string]struct{}

// NewBlockedSet builds a BlockedSet, folding case and ignoring blanks.
func NewBlockedSet(addrs ...string) BlockedSet {
	s := make(BlockedSet, len(addrs))
	for _, a := range addrs {
		s.Add(a)
	}
	return s
}

// DefaultBlocked returns the built-in catalog plus any extra addresses.
func DefaultBlocked(extra ...string) BlockedSet {
	s := NewBlockedSet(staticBlocked...)
	for _, a := range extra {
		s.Add(a)
	}
	return s
}

// Add inserts addr into the set.
func (s BlockedSet) Add(addr string) {
	n := Normalize(addr)
	if n == "" {
		return
	}
	s[n] = struct{}{}
}

// Contains reports whether addr is blocked, ignoring case.
func (s BlockedSet) Contains(addr string) bool {
	_, ok := s[Normalize(addr)]
	return ok
}

// Normalize case-folds an address for comparison.
func Normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Result is the outcome of a Partition pass.
type Result struct {
	// Unique holds retained records, first occurrence wins.
	Unique []model.Record

	// Duplicates holds the original-case email of every repeat.
	Duplicates []string

	// Blocked holds the original-case email of every blocked record.
	Blocked []string
}

// Partition walks records once, in order. A blocked address is always
// routed to Blocked, even when it also repeats; otherwise the first
// occurrence of an address is retained and later ones go to Duplicates.
func Partition(records []model.Record, emailHeader string, blocked BlockedSet) Result {
	res := Result{
		Unique:     make([]model.Record, 0, len(records)),
		Duplicates: []string{},
		Blocked:    []string{},
	}
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		raw := rec.Value(emailHeader)
		normalized := strings.ToLower(raw)

		if _, ok := blocked[normalized]; ok {
			res.Blocked = append(res.Blocked, raw)
			continue
		}
		if _, ok := seen[normalized]; ok {
			res.Duplicates = append(res.Duplicates, raw)
			continue
		}
		seen[normalized] = struct{}{}
		res.Unique = append(res.Unique, rec)
	}

	return res
}
