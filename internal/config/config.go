// Package config provides configuration management for Logo Cruncher.
//
// Config file location: ~/.config/logo-cruncher/config.toml
//
// TOML format:
//
//	debug = false
//
//	[executor]
//	mode = "local"            # local | process | http
//	program = ""              # process mode: backend executable
//	args = []                 # process mode: arguments before the command name
//	base_url = ""             # http mode: backend service root
//	timeout_seconds = 0       # 0 = no deadline beyond the caller's
//
//	[files]
//	directory = "."
//	include_hidden = false
//
//	[display]
//	url_prefix = "asset://localhost/"
//
//	[jobs]
//	backup = false
//	backup_path = "~/.config/logo-cruncher/job.json"
//
//	[events]
//	completion = "event-greet-finished"
//	buffer = 1000
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/logocruncher/logo-cruncher/internal/constants"
)

// Environment overrides applied on top of the file.
const (
	EnvExecutor = "LOGO_EXECUTOR"
	EnvFilesDir = "LOGO_FILES_DIR"
	EnvDebug    = "LOGO_DEBUG"
)

const defaultConfigPath = "~/.config/logo-cruncher/config.toml"

// Config is the effective client configuration.
type Config struct {
	Debug    bool     `toml:"debug"`
	Executor Executor `toml:"executor"`
	Files    Files    `toml:"files"`
	Display  Display  `toml:"display"`
	Jobs     Jobs     `toml:"jobs"`
	Events   Events   `toml:"events"`
}

// Executor selects and configures the command boundary.
type Executor struct {
	Mode           string   `toml:"mode"`
	Program        string   `toml:"program"`
	Args           []string `toml:"args"`
	BaseURL        string   `toml:"base_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Files configures the backend's working directory listing.
type Files struct {
	Directory     string `toml:"directory"`
	IncludeHidden bool   `toml:"include_hidden"`
}

// Display configures how local paths are turned into display URLs.
type Display struct {
	URLPrefix string `toml:"url_prefix"`
}

// Jobs configures the local backend's job backup.
type Jobs struct {
	Backup     bool   `toml:"backup"`
	BackupPath string `toml:"backup_path"`
}

// Events configures backend notifications.
type Events struct {
	Completion string `toml:"completion"`
	Buffer     int    `toml:"buffer"`
}

// Validation errors
var (
	ErrUnknownExecutor  = errors.New("executor.mode must be one of local, process, http")
	ErrMissingProgram   = errors.New("executor.program is required in process mode")
	ErrMissingBaseURL   = errors.New("executor.base_url is required in http mode")
	ErrNegativeTimeout  = errors.New("executor.timeout_seconds must not be negative")
	ErrMissingDirectory = errors.New("files.directory is required")
	ErrMissingBackup    = errors.New("jobs.backup_path is required when jobs.backup is enabled")
	ErrMissingEvent     = errors.New("events.completion is required")
	ErrInvalidBuffer    = errors.New("events.buffer is out of range")
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Executor: Executor{
			Mode: constants.ExecutorLocal,
		},
		Files: Files{
			Directory: ".",
		},
		Display: Display{
			URLPrefix: constants.DefaultDisplayURLPrefix,
		},
		Jobs: Jobs{
			BackupPath: filepath.Join("~", ".config", "logo-cruncher", constants.DefaultBackupFileName),
		},
		Events: Events{
			Completion: constants.EventGreetFinished,
			Buffer:     constants.EventBusDefaultBuffer,
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. It returns the config, the resolved path, and whether
// the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvExecutor); ok && strings.TrimSpace(v) != "" {
		c.Executor.Mode = v
	}
	if v, ok := os.LookupEnv(EnvFilesDir); ok && strings.TrimSpace(v) != "" {
		c.Files.Directory = v
	}
	if v, ok := os.LookupEnv(EnvDebug); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			c.Debug = true
		case "0", "false", "no", "off":
			c.Debug = false
		}
	}
}

func (c *Config) normalize() error {
	var err error

	c.Executor.Mode = strings.ToLower(strings.TrimSpace(c.Executor.Mode))
	c.Executor.Program = strings.TrimSpace(c.Executor.Program)
	c.Executor.BaseURL = strings.TrimSpace(c.Executor.BaseURL)

	if strings.TrimSpace(c.Files.Directory) != "" {
		if c.Files.Directory, err = expandPath(c.Files.Directory); err != nil {
			return fmt.Errorf("files.directory: %w", err)
		}
	}

	if strings.TrimSpace(c.Display.URLPrefix) == "" {
		c.Display.URLPrefix = constants.DefaultDisplayURLPrefix
	}

	if strings.TrimSpace(c.Jobs.BackupPath) != "" {
		if c.Jobs.BackupPath, err = expandPath(c.Jobs.BackupPath); err != nil {
			return fmt.Errorf("jobs.backup_path: %w", err)
		}
	}

	c.Events.Completion = strings.TrimSpace(c.Events.Completion)
	if c.Events.Buffer == 0 {
		c.Events.Buffer = constants.EventBusDefaultBuffer
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Executor.Mode {
	case constants.ExecutorLocal:
	case constants.ExecutorProcess:
		if c.Executor.Program == "" {
			return ErrMissingProgram
		}
	case constants.ExecutorHTTP:
		if c.Executor.BaseURL == "" {
			return ErrMissingBaseURL
		}
	default:
		return fmt.Errorf("%w (got %q)", ErrUnknownExecutor, c.Executor.Mode)
	}

	if c.Executor.TimeoutSeconds < 0 {
		return ErrNegativeTimeout
	}
	if c.Files.Directory == "" {
		return ErrMissingDirectory
	}
	if c.Jobs.Backup && c.Jobs.BackupPath == "" {
		return ErrMissingBackup
	}
	if c.Events.Completion == "" {
		return ErrMissingEvent
	}
	if c.Events.Buffer < 1 || c.Events.Buffer > constants.EventBusMaxBuffer {
		return fmt.Errorf("%w: %d (1-%d)", ErrInvalidBuffer, c.Events.Buffer, constants.EventBusMaxBuffer)
	}
	return nil
}

// CommandTimeout returns the per-command deadline, zero when unset.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Executor.TimeoutSeconds) * time.Second
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Write saves the configuration to path, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
