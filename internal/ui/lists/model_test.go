package lists

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/listmailer/internal/csvimport"
	"github.com/nhle/listmailer/internal/filter"
	"github.com/nhle/listmailer/internal/keys"
	"github.com/nhle/listmailer/internal/listimport"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/tests/testutil"
)

const sample = `id,First Name,Email
1,Ann,ann@x.com
2,Bob,BOB@x.com
3,Bobby,bob@x.com
4,Eve,Elias.Reichel@gmail.com`

func newModel(t *testing.T) Model {
	t.Helper()
	ls, _ := testutil.NewTestListStore(t)
	return New(ls, filter.DefaultBlocked(), time.Millisecond, keys.DefaultKeyMap(), 100, 30)
}

func pending(t *testing.T) *listimport.Pending {
	t.Helper()
	tbl, err := csvimport.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	return listimport.FromTable(tbl, filter.DefaultBlocked())
}

// drive feeds msg to the model and keeps executing the returned commands
// until the model settles or a ListsChangedMsg is produced.
func drive(t *testing.T, m Model, msg tea.Msg) (Model, bool) {
	t.Helper()
	for i := 0; i < 1000 && msg != nil; i++ {
		if _, ok := msg.(ListsChangedMsg); ok {
			return m, true
		}
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		if cmd == nil {
			return m, false
		}
		msg = cmd()
	}
	return m, false
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestImportFlowShowsFilteredPreview(t *testing.T) {
	m := newModel(t)

	m, _ = drive(t, m, importParsedMsg{pending: pending(t)})

	require.Equal(t, modeTable, m.mode)
	assert.True(t, m.Capturing())
	assert.Equal(t, 100, m.percent)
	assert.Equal(t, -1, m.editIdx)
	assert.Equal(t, []string{"First Name", "Email"}, m.headers)
	require.Len(t, m.work.Data, 2)
	assert.Equal(t, []string{"bob@x.com"}, m.work.Duplicates)
	assert.Equal(t, []string{"Elias.Reichel@gmail.com"}, m.work.Blocked)

	view := m.View()
	assert.Contains(t, view, "S. No")
	assert.Contains(t, view, "ann@x.com")
	assert.Contains(t, view, "Duplicates removed (1)")
	assert.Contains(t, view, "Blocked removed (1)")
}

func TestImportErrorReturnsToList(t *testing.T) {
	m := newModel(t)
	m.mode = modePicker

	m, _ = m.Update(importParsedMsg{err: csvimport.ErrNoEmailColumn})

	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.View(), "No 'Email' column found")
}

func TestImportCancel(t *testing.T) {
	m := newModel(t)
	m.phase = time.Hour

	m, cmd := m.Update(importParsedMsg{pending: pending(t)})
	require.NotNil(t, cmd)
	require.Equal(t, modeImporting, m.mode)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = drive(t, m, cmd())

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Import cancelled", m.statusMsg)
	assert.Equal(t, 0, m.lists.Len())
}

func TestSaveImportedList(t *testing.T) {
	m := newModel(t)
	m, _ = drive(t, m, importParsedMsg{pending: pending(t)})

	m.fb.name = "  Customers "
	m, changedSent := drive(t, m, m.saveList()())

	assert.True(t, changedSent)
	assert.Equal(t, modeList, m.mode)
	require.Equal(t, 1, m.lists.Len())
	l := m.lists.All()[0]
	assert.Equal(t, "Customers", l.Name)
	assert.Len(t, l.Data, 2)
	assert.Equal(t, []string{"bob@x.com"}, l.Duplicates)
	assert.Contains(t, m.View(), "Customers")
}

func TestSaveRejectsEmptyName(t *testing.T) {
	m := newModel(t)
	m, _ = drive(t, m, importParsedMsg{pending: pending(t)})

	m.fb.name = "   "
	m, changedSent := drive(t, m, m.saveList()())

	assert.False(t, changedSent)
	assert.Equal(t, modeTable, m.mode)
	assert.Contains(t, m.statusMsg, "list name must not be empty")
	assert.Equal(t, 0, m.lists.Len())
}

func TestEditCellAndSave(t *testing.T) {
	m := newModel(t)
	ctx := context.Background()
	data := []model.Record{
		model.NewRecord([]string{"id", "Name", "Email"}, []string{"1", "Ann", "ann@x.com"}),
		model.NewRecord([]string{"id", "Name", "Email"}, []string{"2", "Bob", "bob@x.com"}),
	}
	require.NoError(t, m.lists.Create(ctx, "Team", data, []string{"dup@x.com"}, nil))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeTable, m.mode)
	assert.Equal(t, []string{"Name", "Email"}, m.headers)

	m, _ = m.Update(runeKey('j'))
	m, _ = m.Update(runeKey('l'))
	assert.Equal(t, 1, m.col)
	assert.Equal(t, 1, m.grid.Cursor())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, modeCellForm, m.mode)
	assert.Equal(t, "bob@x.com", m.fb.cell)

	m.fb.cell = " robert@x.com "
	m.form.State = huh.StateCompleted
	m, _ = m.Update(struct{}{})
	require.Equal(t, modeTable, m.mode)
	assert.True(t, m.dirty)
	assert.Equal(t, "robert@x.com", m.work.Data[1].Value("Email"))

	stored := m.lists.All()[0]
	assert.Equal(t, "bob@x.com", stored.Data[1].Value("Email"), "edits stay pending until saved")

	m.fb.name = "Team"
	m, changedSent := drive(t, m, m.saveList()())
	assert.True(t, changedSent)

	stored = m.lists.All()[0]
	assert.Equal(t, "robert@x.com", stored.Data[1].Value("Email"))
	assert.Equal(t, "2", stored.Data[1].Value("id"))
	assert.Equal(t, []string{"dup@x.com"}, stored.Duplicates)
}

func TestBackDiscardsEdits(t *testing.T) {
	m := newModel(t)
	data := []model.Record{model.NewRecord([]string{"Email"}, []string{"a@x.com"})}
	require.NoError(t, m.lists.Create(context.Background(), "One", data, nil, nil))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, m.work.SetCell(0, "Email", "b@x.com"))
	m.dirty = true

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Changes discarded", m.statusMsg)
	assert.Equal(t, "a@x.com", m.lists.All()[0].Data[0].Value("Email"))
}

func TestDeleteList(t *testing.T) {
	m := newModel(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B"} {
		require.NoError(t, m.lists.Create(ctx, name, nil, nil, nil))
	}

	m, _ = m.Update(runeKey('j'))
	m, cmd := m.Update(runeKey('d'))
	require.NotNil(t, cmd)
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), `"B"`)

	m, changedSent := drive(t, m, m.deleteList(m.selectedIdx)())
	assert.True(t, changedSent)
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, 0, m.selectedIdx)
	require.Equal(t, 1, m.lists.Len())
	assert.Equal(t, "A", m.lists.All()[0].Name)
}

func TestEmptyListsView(t *testing.T) {
	m := newModel(t)

	assert.False(t, m.Capturing())
	assert.Contains(t, m.View(), "No saved lists yet")
}
