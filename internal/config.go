package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultPollInterval   = 2 * time.Second
	DefaultRequestTimeout = 30 * time.Second

	appDirName = ".guidechat"
)

// Config holds the client settings
type Config struct {
	APIURL         string        `yaml:"api_url"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Storage        string        `yaml:"storage"`

	// Path is the file the config was read from, empty when none existed.
	Path string `yaml:"-"`
}

// DefaultConfig returns the built-in settings rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		APIURL:         DefaultAPIURL,
		PollInterval:   DefaultPollInterval,
		RequestTimeout: DefaultRequestTimeout,
		Storage:        filepath.Join(dir, "state.db"),
	}
}

// AppDir returns ~/.guidechat
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, appDirName), nil
}

// LoadConfig resolves settings from defaults, the YAML file, .env and the
// environment, in increasing precedence. An empty path means
// ~/.guidechat/config.yaml, which may be absent.
func LoadConfig(path string) (Config, error) {
	dir, err := AppDir()
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig(dir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &ConfigError{Path: path, Err: err}
		}
		cfg.Path = path
	case errors.Is(err, os.ErrNotExist) && !explicit:
		LogDebug("No config file at %s, using defaults", path)
	default:
		return Config{}, &ConfigError{Path: path, Err: err}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GUIDECHAT_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("GUIDECHAT_STORAGE"); v != "" {
		c.Storage = v
	}
	durations := []struct {
		env   string
		field string
		dst   *time.Duration
	}{
		{"GUIDECHAT_POLL_INTERVAL", "poll_interval", &c.PollInterval},
		{"GUIDECHAT_REQUEST_TIMEOUT", "request_timeout", &c.RequestTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Path: d.env, Field: d.field, Err: err}
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return &ConfigError{Path: c.Path, Field: "api_url", Err: errors.New("must not be empty")}
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return &ConfigError{Path: c.Path, Field: "api_url", Err: fmt.Errorf("unsupported scheme in %q", c.APIURL)}
	}
	if c.PollInterval <= 0 {
		return &ConfigError{Path: c.Path, Field: "poll_interval", Err: errors.New("must be positive")}
	}
	if c.RequestTimeout < 0 {
		return &ConfigError{Path: c.Path, Field: "request_timeout", Err: errors.New("must not be negative")}
	}
	if c.Storage == "" {
		return &ConfigError{Path: c.Path, Field: "storage", Err: errors.New("must not be empty")}
	}
	return nil
}
