package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := open
	open = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { open = prev })
}

func TestSetGetDelete(t *testing.T) {
	useMemoryKeyring(t)

	require.NoError(t, Set(SMTPPassword, "s3cret"))
	v, err := Get(SMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	require.NoError(t, Delete(SMTPPassword))
	_, err = Get(SMTPPassword)
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestLookup(t *testing.T) {
	useMemoryKeyring(t)

	v, err := Lookup(IMAPPassword)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, Set(IMAPPassword, "from-ring"))
	v, err = Lookup(IMAPPassword)
	require.NoError(t, err)
	assert.Equal(t, "from-ring", v)

	t.Setenv("LISTMAILER_IMAP_PASSWORD", "from-env")
	v, err = Lookup(IMAPPassword)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "LISTMAILER_SMTP_PASSWORD", EnvName(SMTPPassword))
}
