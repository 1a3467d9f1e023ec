// Package csvimport turns the raw text of an uploaded .csv file into a
// header list and a sequence of records.
package csvimport

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/nhle/listmailer/internal/model"
)

// MIMEType is the only content type accepted for imports.
const MIMEType = "text/csv"

var (
	// ErrNotCSV is returned for files that are not .csv / text/csv.
	ErrNotCSV = errors.New("please select a valid .csv file")

	// ErrNoEmailColumn is returned when no header equals "Email".
	ErrNoEmailColumn = errors.New("no 'Email' column found")

	// ErrEmpty is returned for files without a header row.
	ErrEmpty = errors.New("csv file is empty")
)

var lineBreak = regexp.MustCompile(`\r?\n`)

func init() {
	// Not every platform ships a mime.types entry for .csv.
	_ = mime.AddExtensionType(".csv", MIMEType)
}

// Table is the parsed content of a CSV file.
type Table struct {
	// Headers is every header in file order, including "id".
	Headers []string

	// DisplayHeaders is Headers without the "id" column.
	DisplayHeaders []string

	// EmailHeader is the header that matched "email".
	EmailHeader string

	Records []model.Record
}

// CheckFile rejects anything that is not a CSV file. When mimeType is
// empty it is derived from the file extension.
func CheckFile(path, mimeType string) error {
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil || mediaType != MIMEType {
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotCSV)
	}
	return nil
}

// ParseFile checks and parses the CSV file at path.
func ParseFile(path string) (*Table, error) {
	if err := CheckFile(path, ""); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Parse reads the whole input and splits it into a header row and records.
// Cells are split on bare commas; quoting is not interpreted.
func Parse(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	text := trim(string(raw))
	if text == "" {
		return nil, ErrEmpty
	}

	lines := lineBreak.Split(text, -1)
	headers := splitTrimmed(lines[0])

	emailHeader := ""
	for _, h := range headers {
		if strings.EqualFold(h, "email") {
			emailHeader = h
			break
		}
	}
	if emailHeader == "" {
		return nil, ErrNoEmailColumn
	}

	records := make([]model.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		records = append(records, model.NewRecord(headers, splitTrimmed(line)))
	}

	return &Table{
		Headers:        headers,
		DisplayHeaders: model.DisplayHeaders(headers),
		EmailHeader:    emailHeader,
		Records:        records,
	}, nil
}

func splitTrimmed(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = trim(p)
	}
	return parts
}

// trim strips whitespace and the byte order mark spreadsheet exports put
// in front of the first header.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff'
	})
}
