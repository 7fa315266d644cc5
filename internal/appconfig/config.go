package appconfig

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	UI            UIConfig      `mapstructure:"ui" yaml:"ui"`
	History       HistoryConfig `mapstructure:"history" yaml:"history"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
	Auth          AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// UIConfig controls the interactive session's look and timing.
type UIConfig struct {
	Theme              string `mapstructure:"theme" yaml:"theme"`
	SpinnerDelayMS     int    `mapstructure:"spinner_delay_ms" yaml:"spinner_delay_ms"`
	CancelGraceSeconds int    `mapstructure:"cancel_grace_seconds" yaml:"cancel_grace_seconds"`
}

// SpinnerDelay returns the configured spinner delay.
func (c UIConfig) SpinnerDelay() time.Duration {
	return time.Duration(c.SpinnerDelayMS) * time.Millisecond
}

// CancelGrace returns how long a cancelled command may keep running.
func (c UIConfig) CancelGrace() time.Duration {
	return time.Duration(c.CancelGraceSeconds) * time.Second
}

// HistoryConfig controls command history persistence.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Limit   int    `mapstructure:"limit" yaml:"limit"`
}

// SSHConfig configures the SSH frontend.
type SSHConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath string `mapstructure:"host_key_path" yaml:"host_key_path"`
}

// AuthConfig configures login auth for the SSH frontend. With Enabled
// false the server accepts any username, which is only suitable for
// local experiments.
type AuthConfig struct {
	Enabled   bool       `mapstructure:"enabled" yaml:"enabled"`
	UserFile  string     `mapstructure:"user_file" yaml:"user_file"`
	SeedUsers []SeedUser `mapstructure:"seed_users" yaml:"seed_users"`
}

// LoggingConfig selects the log output mode and level.
type LoggingConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode"`
	Level string `mapstructure:"level" yaml:"level"`
}

// SeedUser seeds a user record in the auth store on first start.
type SeedUser struct {
	Username     string `mapstructure:"username" yaml:"username"`
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash"`
	TOTPSecret   string `mapstructure:"totp_secret" yaml:"totp_secret"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".echosh", "state"),
		UI: UIConfig{
			Theme:              "outrun",
			SpinnerDelayMS:     500,
			CancelGraceSeconds: 2,
		},
		History: HistoryConfig{
			Enabled: true,
			Dir:     filepath.Join(home, ".echosh", "state", "history"),
			Limit:   200,
		},
		SSH: SSHConfig{
			Addr:        ":2022",
			HostKeyPath: filepath.Join(home, ".echosh", "ssh_host_key"),
		},
		Auth: AuthConfig{
			Enabled:  true,
			UserFile: filepath.Join(home, ".echosh", "users.json"),
		},
		Logging: LoggingConfig{
			Mode:  "console",
			Level: "info",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".echosh", "config.yaml"), nil
}
