// Package listimport runs the CSV import pipeline: parse, then drop
// blocked and duplicate addresses.
package listimport

import (
	"github.com/nhle/listmailer/internal/csvimport"
	"github.com/nhle/listmailer/internal/filter"
	"github.com/nhle/listmailer/internal/model"
)

// Pending is an imported file that has not been saved as a list yet.
type Pending struct {
	Source     string
	Headers    []string
	Display    []string
	Email      string
	Records    []model.Record
	Duplicates []string
	Blocked    []string
}

// File imports the CSV file at path.
func File(path string, blocked filter.BlockedSet) (*Pending, error) {
	t, err := csvimport.ParseFile(path)
	if err != nil {
		return nil, err
	}
	p := FromTable(t, blocked)
	p.Source = path
	return p, nil
}

// FromTable filters an already parsed table.
func FromTable(t *csvimport.Table, blocked filter.BlockedSet) *Pending {
	res := filter.Partition(t.Records, t.EmailHeader, blocked)
	return &Pending{
		Headers:    t.Headers,
		Display:    t.DisplayHeaders,
		Email:      t.EmailHeader,
		Records:    res.Unique,
		Duplicates: res.Duplicates,
		Blocked:    res.Blocked,
	}
}

// Clone returns a deep copy, so cell edits can be discarded.
func (p *Pending) Clone() *Pending {
	c := *p
	c.Records = make([]model.Record, len(p.Records))
	for i, r := range p.Records {
		c.Records[i] = r.Clone()
	}
	c.Duplicates = append([]string(nil), p.Duplicates...)
	c.Blocked = append([]string(nil), p.Blocked...)
	return &c
}
