package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/raccreative/clawdrop/internal/syncerr"
	"github.com/spf13/viper"
)

const (
	EnvPrefix          = "CLAWDROP"
	DefaultServerURL   = "https://raccreativegames.com"
	DefaultConcurrency = 8
	MaxConcurrency     = 64

	configFileName = "config"
	logFileName    = "clawdrop.log"
	targetFileName = "target.json"
)

// Keys understood by viper, shared by flags, env and the config file.
const (
	KeyAPIKey      = "api_key"
	KeyServerURL   = "server_url"
	KeyConcurrency = "concurrency"
	KeyLogLevel    = "log_level"
	KeyS3Endpoint  = "s3_endpoint"
	KeyConfigDir   = "config_dir"
)

// Dir is the per-user config directory, e.g. ~/.config/Clawdrop on linux
// and ~/Library/Application Support/Clawdrop on macOS.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "Clawdrop")
}

type Config struct {
	APIKey      string
	ServerURL   string
	Concurrency int
	LogLevel    string
	// S3Endpoint points the storage clients at an S3 compatible server instead of AWS.
	S3Endpoint string
	// Dir holds target.json and the log file.
	Dir string
	// Path is the config file that was read, empty when none exists.
	Path string
}

func (c *Config) LogFilePath() string { return filepath.Join(c.Dir, logFileName) }
func (c *Config) TargetPath() string  { return filepath.Join(c.Dir, targetFileName) }

// Validate normalizes the config in place.
func (c *Config) Validate() error {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.APIKey == "" {
		return syncerr.Validation("api key missing, set %s_API_KEY", EnvPrefix)
	}

	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
	if err := validateURL(c.ServerURL); err != nil {
		return syncerr.Validation("invalid server url: %w", err)
	}

	if c.S3Endpoint != "" {
		if err := validateURL(c.S3Endpoint); err != nil {
			return syncerr.Validation("invalid s3 endpoint: %w", err)
		}
	}

	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return syncerr.Validation("concurrency must be between 1 and %d, got %d", MaxConcurrency, c.Concurrency)
	}

	if c.Dir == "" {
		c.Dir = Dir()
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("host missing: %q", raw)
	}
	return nil
}

// SetDefaults registers defaults and the env prefix on v. dir is the default
// config directory, CLAWDROP_CONFIG_DIR overrides it.
func SetDefaults(v *viper.Viper, dir string) {
	v.SetDefault(KeyConfigDir, dir)
	v.SetDefault(KeyServerURL, DefaultServerURL)
	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyLogLevel, "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType("json")
}

// Load reads the optional config file and builds a validated Config from v.
// A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	v.AddConfigPath(v.GetString(KeyConfigDir))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := &Config{
		APIKey:      v.GetString(KeyAPIKey),
		ServerURL:   v.GetString(KeyServerURL),
		Concurrency: v.GetInt(KeyConcurrency),
		LogLevel:    v.GetString(KeyLogLevel),
		S3Endpoint:  v.GetString(KeyS3Endpoint),
		Dir:         v.GetString(KeyConfigDir),
		Path:        v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
