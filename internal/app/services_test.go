package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/model"
)

func testConfig() model.AppConfig {
	cfg := *model.DefaultAppConfig()
	cfg.Database.Path = ":memory:"
	cfg.Log.File = ""
	cfg.Merge.DelayMS = 0
	return cfg
}

func openServices(t *testing.T) *Services {
	t.Helper()
	svc, err := Open(context.Background(), testConfig(), "", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestOpen_SeedsAdmin(t *testing.T) {
	svc := openServices(t)

	u, err := svc.Auth.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, 0, svc.Lists.Len())
	assert.NotNil(t, svc.Engine)
}

func TestReconfigure(t *testing.T) {
	svc := openServices(t)
	before := svc.Engine

	cfg := testConfig()
	cfg.Blocked = []string{"Someone@Example.com"}
	cfg.Progress.PhaseDurationMS = 10
	require.NoError(t, svc.Reconfigure(cfg))

	assert.NotSame(t, before, svc.Engine)
	assert.True(t, svc.Blocked.Contains("someone@example.com"))
	assert.Equal(t, int64(10), svc.PhaseDuration().Milliseconds())

	bad := testConfig()
	bad.Merge.Transport = model.TransportSMTP
	require.Error(t, svc.Reconfigure(bad))
	assert.Equal(t, cfg.Blocked, svc.Config.Blocked)
}

func TestNewTransport(t *testing.T) {
	cfg := testConfig()

	tr, err := NewTransport(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &merge.LogTransport{}, tr)

	cfg.Merge.Transport = model.TransportSMTP
	_, err = NewTransport(cfg, zap.NewNop())
	require.Error(t, err)

	cfg.SMTP.Host = "smtp.example.com"
	tr, err = NewTransport(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &merge.SMTPTransport{}, tr)

	cfg.IMAP.Host = "imap.example.com"
	tr, err = NewTransport(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &merge.SentCopyTransport{}, tr)
}
