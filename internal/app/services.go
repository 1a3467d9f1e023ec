package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/listmailer/internal/auth"
	"github.com/nhle/listmailer/internal/credential"
	"github.com/nhle/listmailer/internal/filter"
	"github.com/nhle/listmailer/internal/merge"
	"github.com/nhle/listmailer/internal/model"
	"github.com/nhle/listmailer/internal/store"
)

// Services bundles everything the UI and the CLI commands operate on.
type Services struct {
	Config     model.AppConfig
	ConfigPath string
	Logger     *zap.Logger

	Store   *store.SQLiteStore
	Lists   *store.ListStore
	Auth    *auth.Service
	Engine  *merge.Engine
	Blocked filter.BlockedSet
}

// Open opens the database, loads the saved lists, seeds the default admin
// and builds the merge engine from cfg.
func Open(ctx context.Context, cfg model.AppConfig, configPath string, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	lists := store.NewListStore(st)
	if err := lists.Load(ctx); err != nil {
		st.Close()
		return nil, err
	}

	authSvc := auth.NewService(st, store.NewSession(st), logger)
	if err := authSvc.EnsureAdmin(ctx); err != nil {
		st.Close()
		return nil, err
	}

	engine, err := NewEngine(cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	logger.Debug("services opened",
		zap.String("database", cfg.Database.Path),
		zap.Int("lists", lists.Len()),
		zap.String("transport", cfg.Merge.Transport),
	)

	return &Services{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Store:      st,
		Lists:      lists,
		Auth:       authSvc,
		Engine:     engine,
		Blocked:    filter.DefaultBlocked(cfg.Blocked...),
	}, nil
}

// Close closes the database.
func (s *Services) Close() error {
	return s.Store.Close()
}

// Reconfigure swaps in a new configuration and rebuilds the engine.
func (s *Services) Reconfigure(cfg model.AppConfig) error {
	engine, err := NewEngine(cfg, s.Logger)
	if err != nil {
		return err
	}
	s.Config = cfg
	s.Engine = engine
	s.Blocked = filter.DefaultBlocked(cfg.Blocked...)
	return nil
}

// PhaseDuration is the length of each import progress phase.
func (s *Services) PhaseDuration() time.Duration {
	return time.Duration(s.Config.Progress.PhaseDurationMS) * time.Millisecond
}

// NewEngine builds a merge engine with the transport selected in cfg.
func NewEngine(cfg model.AppConfig, logger *zap.Logger) (*merge.Engine, error) {
	t, err := NewTransport(cfg, logger)
	if err != nil {
		return nil, err
	}
	return merge.NewEngine(t,
		merge.WithDelay(time.Duration(cfg.Merge.DelayMS)*time.Millisecond),
		merge.WithFrom(cfg.Merge.From),
		merge.WithLogger(logger),
	), nil
}

// NewTransport returns the log transport, or SMTP delivery when configured.
// With an IMAP host set, SMTP deliveries are also filed in the sent mailbox.
func NewTransport(cfg model.AppConfig, logger *zap.Logger) (merge.Transport, error) {
	if cfg.Merge.Transport != model.TransportSMTP {
		return merge.NewLogTransport(logger), nil
	}
	if cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("smtp transport selected but smtp.host is empty")
	}

	pw, err := password(cfg.SMTP.Username, credential.SMTPPassword)
	if err != nil {
		return nil, err
	}
	var t merge.Transport = merge.NewSMTPTransport(cfg.SMTP, pw)

	if cfg.IMAP.Host != "" {
		pw, err := password(cfg.IMAP.Username, credential.IMAPPassword)
		if err != nil {
			return nil, err
		}
		t = merge.NewSentCopyTransport(t, merge.NewIMAPAppender(cfg.IMAP, pw), cfg.IMAP.SentMailbox)
	}
	return t, nil
}

func password(username, key string) (string, error) {
	if username == "" {
		return "", nil
	}
	pw, err := credential.Lookup(key)
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", key, err)
	}
	return pw, nil
}
