// ABOUTME: Application configuration loaded from YAML with environment overrides
// ABOUTME: Handles XDG paths, first-run defaults, .env loading and atomic saves
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG directories and the session cookie.
const AppName = "jaksim"

// Client sources for the Google OAuth application.
const (
	ClientSourceFile   = "file"
	ClientSourceEnv    = "env"
	ClientSourceSecret = "secret"
)

// Checklist backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendCharm  = "charm"
)

// Chat providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// GoogleConfig describes where the OAuth client comes from and where the
// user's credential is kept.
type GoogleConfig struct {
	// ClientSource is one of "file", "env" or "secret".
	ClientSource string `yaml:"client_source"`
	// ClientSecretFile is the client_secret.json downloaded from the Cloud console.
	ClientSecretFile string `yaml:"client_secret_file"`
	// ClientSecretEnv names the environment variable holding the client
	// secret JSON document when ClientSource is "secret".
	ClientSecretEnv string `yaml:"client_secret_env"`
	// ClientID and ClientSecret are used when ClientSource is "env".
	// They are filled from GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET and never written back.
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`

	CredentialsFile string `yaml:"credentials_file"`
	RedirectURL     string `yaml:"redirect_url"`
	CalendarID      string `yaml:"calendar_id"`
	UpcomingLimit   int    `yaml:"upcoming_limit"`
}

// ChecklistConfig selects the checklist storage backend.
type ChecklistConfig struct {
	Backend string `yaml:"backend"`
	// Path is a file for "file" and "sqlite", a directory for "badger".
	Path string `yaml:"path"`
	// CharmHost is the Charm server used by the "charm" backend.
	CharmHost string `yaml:"charm_host"`
	AutoSync  bool   `yaml:"auto_sync"`
}

// ChatConfig selects the hosted language model.
type ChatConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url,omitempty"`
	// APIKey comes from OPENAI_API_KEY or GEMINI_API_KEY and is never written back.
	APIKey       string `yaml:"-"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the web UI.
	Listen string `yaml:"listen"`
	// Timezone is the IANA zone used for form input and new events.
	Timezone string `yaml:"timezone"`
	// SessionSecret signs the session cookie. Filled from JAKSIM_SESSION_SECRET.
	SessionSecret string `yaml:"-"`
	// SessionIdle is how long an idle browser session is kept.
	SessionIdle time.Duration `yaml:"session_idle"`

	Google    GoogleConfig    `yaml:"google"`
	Checklist ChecklistConfig `yaml:"checklist"`
	Chat      ChatConfig      `yaml:"chat"`
}

// DataDir returns the XDG data directory for jaksim.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultPath returns the XDG config file path.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize fills missing or invalid values with defaults.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8501"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.SessionIdle <= 0 {
		c.SessionIdle = 12 * time.Hour
	}

	g := &c.Google
	switch g.ClientSource {
	case ClientSourceFile, ClientSourceEnv, ClientSourceSecret:
	default:
		g.ClientSource = ClientSourceFile
	}
	if g.ClientSecretFile == "" {
		g.ClientSecretFile = filepath.Join(xdg.ConfigHome, AppName, "client_secret.json")
	}
	if g.ClientSecretEnv == "" {
		g.ClientSecretEnv = "GOOGLE_CLIENT_SECRET_JSON"
	}
	if g.CredentialsFile == "" {
		g.CredentialsFile = filepath.Join(DataDir(), "google_credentials.json")
	}
	if g.CalendarID == "" {
		g.CalendarID = "primary"
	}
	if g.UpcomingLimit <= 0 {
		g.UpcomingLimit = 10
	}

	cl := &c.Checklist
	switch cl.Backend {
	case BackendFile, BackendSQLite, BackendBadger, BackendCharm:
	default:
		cl.Backend = BackendFile
	}
	if cl.Path == "" {
		switch cl.Backend {
		case BackendSQLite:
			cl.Path = filepath.Join(DataDir(), "checklists.db")
		case BackendBadger:
			cl.Path = filepath.Join(DataDir(), "checklists.kv")
		default:
			cl.Path = filepath.Join(DataDir(), "checklists.json")
		}
	}
	if cl.CharmHost == "" {
		cl.CharmHost = "charm.2389.dev"
	}

	ch := &c.Chat
	switch ch.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		ch.Provider = ProviderOpenAI
	}
	if ch.Model == "" {
		if ch.Provider == ProviderGemini {
			ch.Model = "gemini-2.0-flash"
		} else {
			ch.Model = "gpt-4"
		}
	}
}

// RedirectURL returns the OAuth callback of the web UI.
func (c *Config) RedirectURL() string {
	if c.Google.RedirectURL != "" {
		return c.Google.RedirectURL
	}
	return "http://" + c.Listen + "/auth/google/callback"
}

// Location returns the configured display zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate reports configuration that cannot work at all.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Load reads the YAML file at path, applies .env and environment overrides
// and normalizes the result.
//
// A missing file is created with defaults (0600). An empty path means DefaultPath().
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Save(path, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		cfg := &Config{}
		applyEnvOverrides(cfg)
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides copies secrets and overrides from the environment.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JAKSIM_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("JAKSIM_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("JAKSIM_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("JAKSIM_CHECKLIST_BACKEND"); v != "" {
		cfg.Checklist.Backend = strings.ToLower(v)
		cfg.Checklist.Path = ""
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}

	provider := cfg.Chat.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}
	switch provider {
	case ProviderGemini:
		cfg.Chat.APIKey = os.Getenv("GEMINI_API_KEY")
	default:
		cfg.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temp file beside path and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience wrapper around the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
