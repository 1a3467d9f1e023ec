package csvimport

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_HeadersAndRecords(t *testing.T) {
	in := "id, Name ,Email\r\n1,Bob,bob@x.com\r\n2,Ann\n"

	tbl, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "Name", "Email"}, tbl.Headers)
	assert.Equal(t, []string{"Name", "Email"}, tbl.DisplayHeaders)
	assert.Equal(t, "Email", tbl.EmailHeader)
	require.Len(t, tbl.Records, 2)

	assert.Equal(t, "1", tbl.Records[0].Value("id"))
	assert.Equal(t, "bob@x.com", tbl.Records[0].Value("Email"))
	assert.Equal(t, "Ann", tbl.Records[1].Value("Name"))
	assert.Equal(t, "", tbl.Records[1].Value("Email"))
}

func TestParse_EmailHeaderCaseInsensitive(t *testing.T) {
	tbl, err := Parse(strings.NewReader("EMAIL\na@x.com"))
	require.NoError(t, err)
	assert.Equal(t, "EMAIL", tbl.EmailHeader)
}

func TestParse_ExtraFieldsIgnored(t *testing.T) {
	tbl, err := Parse(strings.NewReader("Email\na@x.com,extra,more"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Email"}, tbl.Records[0].Keys())
}

func TestParse_ByteOrderMark(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantHeaders []string
		wantDisplay []string
		wantEmail   string
	}{
		{"email first", "\ufeffEmail,Name\na@x.com,A", []string{"Email", "Name"}, []string{"Email", "Name"}, "Email"},
		{"id first", "\ufeffid,Email\n1,a@x.com", []string{"id", "Email"}, []string{"Email"}, "Email"},
		{"bom and blank lines", "\ufeff\n Email \r\nb@x.com", []string{"Email"}, []string{"Email"}, "Email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Parse(strings.NewReader(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.wantHeaders, tbl.Headers)
			assert.Equal(t, tc.wantDisplay, tbl.DisplayHeaders)
			assert.Equal(t, tc.wantEmail, tbl.EmailHeader)
			require.Len(t, tbl.Records, 1)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmpty},
		{"whitespace", " \n\r\n ", ErrEmpty},
		{"no email", "id,Name\n1,Bob", ErrNoEmailColumn},
		{"email-like header", "E-mail\nx@y.com", ErrNoEmailColumn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.in))
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCheckFile(t *testing.T) {
	assert.NoError(t, CheckFile("lists/people.csv", ""))
	assert.NoError(t, CheckFile("people.CSV", ""))
	assert.NoError(t, CheckFile("upload", "text/csv; charset=utf-8"))
	assert.ErrorIs(t, CheckFile("people.txt", ""), ErrNotCSV)
	assert.ErrorIs(t, CheckFile("people.csv", "application/json"), ErrNotCSV)
	assert.ErrorIs(t, CheckFile("people", ""), ErrNotCSV)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("Email\na@x.com\n"), 0o600))

	tbl, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, tbl.Records, 1)

	bad := filepath.Join(dir, "people.txt")
	require.NoError(t, os.WriteFile(bad, []byte("Email\na@x.com\n"), 0o600))
	_, err = ParseFile(bad)
	assert.ErrorIs(t, err, ErrNotCSV)
}
