package lists

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/listmailer/internal/model"
)

func TestColumnsAndRows(t *testing.T) {
	headers := []string{"Name", "Email"}
	records := []model.Record{
		model.NewRecord([]string{"id", "Name", "Email"}, []string{"7", "Ann", "ann@example.com"}),
		model.NewRecord([]string{"id", "Name", "Email"}, []string{"8", "Bob", "b@x.io"}),
	}

	cols := Columns(headers, records, 1)
	if assert.Len(t, cols, 3) {
		assert.Equal(t, serialTitle, cols[0].Title)
		assert.Equal(t, "Name", cols[1].Title)
		assert.Equal(t, "▸Email", cols[2].Title)
		assert.Equal(t, len("ann@example.com"), cols[2].Width)
	}

	rows := Rows(headers, records)
	assert.Equal(t, []string{"1", "Ann", "ann@example.com"}, []string(rows[0]))
	assert.Equal(t, []string{"2", "Bob", "b@x.io"}, []string(rows[1]))
}

func TestColumnsCapWidth(t *testing.T) {
	long := "a-really-long-address-that-overflows@example.com"
	cols := Columns([]string{"Email"}, []model.Record{model.NewRecord([]string{"Email"}, []string{long})}, -1)
	assert.Equal(t, maxColWidth, cols[1].Width)
}
