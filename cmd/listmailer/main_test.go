package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/store"
)

const contacts = `ID,First Name,Last Name,Email
1,Ada,Lovelace,ada@example.com
2,Alan,Turing,alan@example.com
3,Ada,Again,ADA@example.com
4,Elias,Reichel,Elias.Reichel@gmail.com
5,Grace,Hopper,grace@example.com
`

// testConfig writes a config that keeps the database in dir and turns off
// logging and send delays.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := model.DefaultAppConfig()
	cfg.Database.Path = filepath.Join(dir, "listmailer.db")
	cfg.Log.File = ""
	cfg.Merge.DelayMS = 0

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, model.SaveConfig(path, cfg))
	return path
}

func writeCSV(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportAndShow(t *testing.T) {
	cfg := testConfig(t)
	csv := writeCSV(t, "contacts.csv", contacts)

	out, err := run(t, cfg, "import", csv, "--name", "Customers")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved list "Customers" with 3 records`)
	assert.Contains(t, out, "Skipped 1 duplicate(s): ADA@example.com")
	assert.Contains(t, out, "Skipped 1 blocked: Elias.Reichel@gmail.com")

	out, err = run(t, cfg, "lists")
	require.NoError(t, err)
	assert.Contains(t, out, "Customers")

	out, err = run(t, cfg, "lists", "show", "customers")
	require.NoError(t, err)
	assert.Contains(t, out, "S. No")
	assert.Contains(t, out, "grace@example.com")
	assert.NotContains(t, out, "ID")
}

func TestImport_DefaultNameAndDuplicate(t *testing.T) {
	cfg := testConfig(t)
	csv := writeCSV(t, "leads.csv", contacts)

	out, err := run(t, cfg, "import", csv)
	require.NoError(t, err)
	assert.Contains(t, out, `Saved list "leads"`)

	_, err = run(t, cfg, "import", csv)
	assert.ErrorIs(t, err, store.ErrDuplicateListName)
}

func TestImport_RejectsNonCSV(t *testing.T) {
	cfg := testConfig(t)
	txt := writeCSV(t, "contacts.txt", contacts)

	_, err := run(t, cfg, "import", txt)
	require.Error(t, err)
}

func TestListsDelete(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, "import", writeCSV(t, "a.csv", contacts), "--name", "A")
	require.NoError(t, err)

	_, err = run(t, cfg, "lists", "delete", "A")
	assert.ErrorIs(t, err, errNotConfirmed)

	out, err := run(t, cfg, "lists", "delete", "A", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted list "A"`)

	out, err = run(t, cfg, "lists")
	require.NoError(t, err)
	assert.Contains(t, out, "No lists saved yet.")

	_, err = run(t, cfg, "lists", "delete", "A", "--yes")
	assert.ErrorIs(t, err, store.ErrListNotFound)
}

func TestSend(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, "import", writeCSV(t, "c.csv", contacts), "--name", "Customers")
	require.NoError(t, err)

	out, err := run(t, cfg, "send",
		"--list", "Customers",
		"--template", "1",
		"--first-name", "First Name",
		"--last-name", "Last Name",
		"--email", "Email",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Sending email 1/3 (33%)")
	assert.Contains(t, out, "Sending email 3/3 (100%)")
	assert.Contains(t, out, "3 emails processed successfully")
}

func TestSend_RequiresMapping(t *testing.T) {
	cfg := testConfig(t)
	_, err := run(t, cfg, "import", writeCSV(t, "c.csv", contacts), "--name", "Customers")
	require.NoError(t, err)

	_, err = run(t, cfg, "send", "--list", "Customers", "--first-name", "First Name")
	require.Error(t, err)

	_, err = run(t, cfg, "send", "--list", "Customers", "--template", "99",
		"--first-name", "First Name", "--email", "Email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown template")
}

func TestTemplates(t *testing.T) {
	out, err := run(t, testConfig(t), "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "firstName")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "Software Engineer Hiring")
}

func TestPrintTable(t *testing.T) {
	var out bytes.Buffer
	err := printTable(&out, []string{"Name", "Records"}, [][]string{{"Customers", "3"}, {"Leads", "12"}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 6, "top border, header, separator, two rows, bottom border")
	assert.Contains(t, lines[1], "Name")
	assert.Contains(t, lines[3], "Customers")
	assert.Contains(t, lines[4], "12")
	assert.NotContains(t, out.String(), "\t")
}

func TestUsers(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "admin")

	out, err = run(t, cfg, "users", "add", "jane", "--email", "jane@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, `Created user "jane"`)

	out, err = run(t, cfg, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "jane@example.com")

	out, err = run(t, cfg, "users", "delete", "jane", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted user "jane"`)

	_, err = run(t, cfg, "users", "delete", "jane", "--yes")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
