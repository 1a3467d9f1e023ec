package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord_PadsMissingTrailingFields(t *testing.T) {
	r := NewRecord([]string{"id", "Email", "Name"}, []string{"1", "a@x.com"})

	assert.Equal(t, []string{"id", "Email", "Name"}, r.Keys())
	assert.Equal(t, "a@x.com", r.Value("Email"))

	v, ok := r.Get("Name")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = r.Get("Phone")
	assert.False(t, ok)
}

func TestRecord_SetKeepsPosition(t *testing.T) {
	r := NewRecord([]string{"a", "b"}, []string{"1", "2"})
	r = r.Set("a", "9")
	r = r.Set("c", "3")

	assert.Equal(t, []string{"a", "b", "c"}, r.Keys())
	assert.Equal(t, "9", r.Value("a"))
}

func TestRecord_JSONPreservesOrder(t *testing.T) {
	r := NewRecord([]string{"zeta", "alpha", "Email"}, []string{"z", "a", "e@x.com"})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"z","alpha":"a","Email":"e@x.com"}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestRecord_UnmarshalScalars(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"note":null,"ok":true}`), &r))

	assert.Equal(t, "7", r.Value("id"))
	assert.Equal(t, "", r.Value("note"))
	assert.Equal(t, "true", r.Value("ok"))
}

func TestRecord_UnmarshalRejectsArray(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`["a"]`), &r))
}

func TestDisplayHeaders(t *testing.T) {
	got := DisplayHeaders([]string{"ID", "Email", " id ", "Name"})
	assert.Equal(t, []string{"Email", "Name"}, got)
}

func TestList_CloneIsIndependent(t *testing.T) {
	l := List{
		Name:       "x",
		Data:       []Record{NewRecord([]string{"Email"}, []string{"a@x.com"})},
		Duplicates: []string{"A@X.COM"},
	}

	c := l.Clone()
	require.NoError(t, c.SetCell(0, "Email", "b@x.com"))
	c.Duplicates[0] = "changed"

	assert.Equal(t, "a@x.com", l.Data[0].Value("Email"))
	assert.Equal(t, "A@X.COM", l.Duplicates[0])
	assert.Equal(t, "b@x.com", c.Data[0].Value("Email"))
}

func TestList_SetCellOutOfRange(t *testing.T) {
	l := List{}
	assert.Error(t, l.SetCell(0, "Email", "x"))
}
