// Package config resolves client settings from defaults, a .env file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreJSON   = "jsonfile"
	StoreSQLite = "sqlite"
)

// Defaults.
const (
	DefaultBackendURL = "http://localhost:5000"
	DefaultTimeout    = 30 * time.Second
)

// Config holds client settings.
type Config struct {
	BackendURL string
	Store      string
	StatePath  string
	Timeout    time.Duration
	Verbose    bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BackendURL: DefaultBackendURL,
		Store:      StoreJSON,
		Timeout:    DefaultTimeout,
	}
}

// Dir is the per-user config directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "gk-share")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gk-share")
}

// Path returns the state location, defaulting by backend under Dir.
func (c Config) Path() string {
	if c.StatePath != "" {
		return c.StatePath
	}
	if c.Store == StoreSQLite {
		return filepath.Join(Dir(), "state.db")
	}
	return filepath.Join(Dir(), "state.json")
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	if c.BackendURL == "" {
		return errors.New("backend url is empty")
	}
	if c.Store != StoreJSON && c.Store != StoreSQLite {
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreJSON, StoreSQLite)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// Load resolves settings and returns the remaining positional arguments.
// Missing env files are skipped; with none given, ./.env is tried.
func Load(args []string, stderr io.Writer, envFiles ...string) (Config, []string, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return Config{}, nil, err
	}

	c := Default()
	if err := c.fromEnv(); err != nil {
		return Config{}, nil, err
	}

	fset := flag.NewFlagSet("gk-share", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {}
	fset.StringVar(&c.BackendURL, "backend", c.BackendURL, "backend base URL")
	fset.StringVar(&c.Store, "store", c.Store, "local store: jsonfile|sqlite")
	fset.StringVar(&c.StatePath, "state", c.StatePath, "local store path")
	fset.DurationVar(&c.Timeout, "timeout", c.Timeout, "per-command request timeout")
	fset.BoolVar(&c.Verbose, "v", c.Verbose, "verbose logging")
	if err := fset.Parse(args); err != nil {
		return Config{}, nil, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, nil, err
	}
	return c, fset.Args(), nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) fromEnv() error {
	c.BackendURL = getEnv("REACT_APP_BACKEND_URL", c.BackendURL)
	c.BackendURL = getEnv("BACKEND_URL", c.BackendURL)
	c.Store = getEnv("GK_SHARE_STORE", c.Store)
	c.StatePath = getEnv("GK_SHARE_STATE", c.StatePath)
	if v, ok := os.LookupEnv("GK_SHARE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GK_SHARE_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
