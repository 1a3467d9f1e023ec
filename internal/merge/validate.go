package merge

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nhle/listmailer/internal/model"
)

var (
	// ErrEmailNotMapped is returned when no header is mapped to Email.
	ErrEmailNotMapped = errors.New("please select the Email field before sending")

	// ErrFirstNameNotMapped is returned when no header is mapped to First Name.
	ErrFirstNameNotMapped = errors.New("you must map at least the First Name & Email fields")
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// InvalidEmailError reports the first record whose mapped email column does
// not hold an address.
type InvalidEmailError struct {
	// Row is 1-based.
	Row    int
	Column string
	Value  string
}

func (e *InvalidEmailError) Error() string {
	return fmt.Sprintf(
		"column %q contains non-email values (row %d: %q); please select the correct Email option",
		e.Column, e.Row, e.Value,
	)
}

// IsEmail reports whether s looks like something@something.something once
// trimmed.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Validate checks the mapping against every record before anything is sent.
func Validate(m model.FieldMapping, records []model.Record) error {
	if m.Email == "" {
		return ErrEmailNotMapped
	}
	if m.FirstName == "" {
		return ErrFirstNameNotMapped
	}
	for i, r := range records {
		v := r.Value(m.Email)
		if !IsEmail(v) {
			return &InvalidEmailError{Row: i + 1, Column: m.Email, Value: v}
		}
	}
	return nil
}
