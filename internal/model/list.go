package model

import "fmt"

// List is a named, persisted collection of filtered CSV records together
// with the addresses that were dropped while importing it.
type List struct {
	Name       string   `json:"name"`
	Data       []Record `json:"data"`
	Duplicates []string `json:"duplicates"`
	Blocked    []string `json:"blocked"`
}

// Headers returns the keys of the first record, or nil for an empty list.
func (l List) Headers() []string {
	if len(l.Data) == 0 {
		return nil
	}
	return l.Data[0].Keys()
}

// Clone returns a deep copy so edits do not leak into the stored list.
func (l List) Clone() List {
	c := List{
		Name:       l.Name,
		Data:       make([]Record, len(l.Data)),
		Duplicates: append([]string(nil), l.Duplicates...),
		Blocked:    append([]string(nil), l.Blocked...),
	}
	for i, r := range l.Data {
		c.Data[i] = r.Clone()
	}
	return c
}

// SetCell updates one cell of the list's data.
func (l *List) SetCell(row int, header, value string) error {
	if row < 0 || row >= len(l.Data) {
		return fmt.Errorf("row %d out of range (0-%d)", row, len(l.Data)-1)
	}
	l.Data[row] = l.Data[row].Set(header, value)
	return nil
}
