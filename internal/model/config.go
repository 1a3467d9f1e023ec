package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. LISTMAILER_SMTP_HOST.
const envPrefix = "LISTMAILER"

// Merge transports.
const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
)

// DatabaseConfig locates the local SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// File is the log sink. The terminal UI owns stdout, so logs go to a
	// file unless the CLI is run with --verbose.
	File string `mapstructure:"file" yaml:"file"`

	// Format is "console" or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// ProgressConfig tunes the import progress animation.
type ProgressConfig struct {
	PhaseDurationMS int `mapstructure:"phase_duration_ms" yaml:"phase_duration_ms"`
}

// MergeConfig tunes the mail merge engine.
type MergeConfig struct {
	// DelayMS is the pause between two records.
	DelayMS int `mapstructure:"delay_ms" yaml:"delay_ms"`

	// From is the sender address used when composing messages.
	From string `mapstructure:"from" yaml:"from"`

	// Transport is "log" (default) or "smtp".
	Transport string `mapstructure:"transport" yaml:"transport"`
}

// SMTPConfig holds the submission server settings. The password lives in
// the system keyring under "smtp-password".
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// IMAPConfig enables storing a copy of every sent message. Leave Host
// empty to disable. The password lives in the keyring under "imap-password".
type IMAPConfig struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        string `mapstructure:"port" yaml:"port"`
	Username    string `mapstructure:"username" yaml:"username"`
	SentMailbox string `mapstructure:"sent_mailbox" yaml:"sent_mailbox"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// SettingsConfig holds the user-facing preferences of the settings page.
type SettingsConfig struct {
	EmailNotifications bool   `mapstructure:"email_notifications" yaml:"email_notifications"`
	SMSNotifications   bool   `mapstructure:"sms_notifications" yaml:"sms_notifications"`
	ProfileVisibility  string `mapstructure:"profile_visibility" yaml:"profile_visibility"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Progress ProgressConfig `mapstructure:"progress" yaml:"progress"`
	Merge    MergeConfig    `mapstructure:"merge" yaml:"merge"`
	SMTP     SMTPConfig     `mapstructure:"smtp" yaml:"smtp"`
	IMAP     IMAPConfig     `mapstructure:"imap" yaml:"imap"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Settings SettingsConfig `mapstructure:"settings" yaml:"settings"`

	// Blocked extends the built-in blocked address catalog.
	Blocked []string `mapstructure:"blocked" yaml:"blocked"`
}

// ConfigDir returns ~/.config/listmailer, falling back to the working
// directory when the home directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "listmailer")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/listmailer/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Database: DatabaseConfig{Path: filepath.Join(dir, "listmailer.db")},
		Log: LogConfig{
			Level:  "info",
			File:   filepath.Join(dir, "listmailer.log"),
			Format: "console",
		},
		Progress: ProgressConfig{PhaseDurationMS: 1500},
		Merge: MergeConfig{
			DelayMS:   100,
			From:      "noreply@example.com",
			Transport: TransportLog,
		},
		SMTP: SMTPConfig{Port: "587", TLS: false},
		IMAP: IMAPConfig{Port: "993", SentMailbox: "Sent"},
		Display: DisplayConfig{
			Theme: "default",
		},
		Settings: SettingsConfig{
			EmailNotifications: true,
			SMSNotifications:   false,
			ProfileVisibility:  "public",
		},
	}
}

// setDefaults mirrors DefaultAppConfig into v so missing keys resolve to
// sensible values.
func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("progress.phase_duration_ms", d.Progress.PhaseDurationMS)
	v.SetDefault("merge.delay_ms", d.Merge.DelayMS)
	v.SetDefault("merge.from", d.Merge.From)
	v.SetDefault("merge.transport", d.Merge.Transport)
	v.SetDefault("smtp.host", d.SMTP.Host)
	v.SetDefault("smtp.port", d.SMTP.Port)
	v.SetDefault("smtp.username", d.SMTP.Username)
	v.SetDefault("smtp.tls", d.SMTP.TLS)
	v.SetDefault("imap.host", d.IMAP.Host)
	v.SetDefault("imap.port", d.IMAP.Port)
	v.SetDefault("imap.username", d.IMAP.Username)
	v.SetDefault("imap.sent_mailbox", d.IMAP.SentMailbox)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("settings.email_notifications", d.Settings.EmailNotifications)
	v.SetDefault("settings.sms_notifications", d.Settings.SMSNotifications)
	v.SetDefault("settings.profile_visibility", d.Settings.ProfileVisibility)
	v.SetDefault("blocked", []string{})
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults are used. Environment variables
// prefixed with LISTMAILER_ override both.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Merge.Transport != TransportLog && cfg.Merge.Transport != TransportSMTP {
		return nil, fmt.Errorf("parsing config %s: unknown merge transport %q", path, cfg.Merge.Transport)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("log", cfg.Log)
	v.Set("progress", cfg.Progress)
	v.Set("merge", cfg.Merge)
	v.Set("smtp", cfg.SMTP)
	v.Set("imap", cfg.IMAP)
	v.Set("display", cfg.Display)
	v.Set("settings", cfg.Settings)
	v.Set("blocked", cfg.Blocked)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
