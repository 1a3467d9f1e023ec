package lists

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/theme"
)

const (
	serialTitle = "S. No"
	maxColWidth = 28
)

// Columns builds the table columns: a serial number followed by headers.
// The column at active is marked so the cell cursor is visible.
func Columns(headers []string, records []model.Record, active int) []table.Column {
	cols := make([]table.Column, 0, len(headers)+1)
	cols = append(cols, table.Column{Title: serialTitle, Width: len(serialTitle)})
	for i, h := range headers {
		title := h
		if i == active {
			title = "▸" + h
		}
		w := lipgloss.Width(title)
		for _, r := range records {
			if vw := lipgloss.Width(r.Value(h)); vw > w {
				w = vw
			}
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		cols = append(cols, table.Column{Title: title, Width: w})
	}
	return cols
}

// Rows renders records in header order, numbered from 1.
func Rows(headers []string, records []model.Record) []table.Row {
	rows := make([]table.Row, len(records))
	for i, r := range records {
		row := make(table.Row, 0, len(headers)+1)
		row = append(row, strconv.Itoa(i+1))
		for _, h := range headers {
			row = append(row, r.Value(h))
		}
		rows[i] = row
	}
	return rows
}

// NewTable returns a focused table over records.
func NewTable(headers []string, records []model.Record, active, height int) table.Model {
	t := table.New(
		table.WithColumns(Columns(headers, records, active)),
		table.WithRows(Rows(headers, records)),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorGray).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorMagenta).
		Bold(false)
	t.SetStyles(s)
	return t
}
