// Package config assembles the server configuration from defaults, an
// optional TOML file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Dataset DatasetConfig `toml:"dataset"`
	Captcha CaptchaConfig `toml:"captcha"`
	Resume  ResumeConfig  `toml:"resume"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Port        string   `toml:"port"`
	DataDir     string   `toml:"data_dir"`
	CORSOrigins []string `toml:"cors_origins"`
}

// DatasetConfig describes where the colleges table comes from.
type DatasetConfig struct {
	// Source is a local path, an http(s) URL, or a .zip archive of either.
	Source string `toml:"source"`
	// LoadTimeout bounds the startup load. Zero disables it.
	LoadTimeout           Duration `toml:"load_timeout"`
	SkipHeaderInStates    bool     `toml:"skip_header_states"`
	SkipHeaderInDistricts bool     `toml:"skip_header_districts"`
}

// CaptchaConfig configures the verification relay.
type CaptchaConfig struct {
	Secret    string  `toml:"secret"`
	VerifyURL string  `toml:"verify_url"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// ResumeConfig configures resume uploads.
type ResumeConfig struct {
	MaxSize     int64  `toml:"max_size"`
	Collection  string `toml:"collection"`
	Field       string `toml:"field"`
	PublicURL   string `toml:"public_url"`
	CompressPDF bool   `toml:"compress_pdf"`
}

// Duration is a time.Duration that reads "90s" style strings from TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "3000",
			DataDir:     "./pb_data",
			CORSOrigins: []string{"*"},
		},
		Dataset: DatasetConfig{
			Source:             "database.csv",
			LoadTimeout:        Duration(2 * time.Minute),
			SkipHeaderInStates: true,
		},
		Captcha: CaptchaConfig{
			VerifyURL: "https://www.google.com/recaptcha/api/siteverify",
			RateLimit: 10,
			Burst:     20,
		},
		Resume: ResumeConfig{
			MaxSize:     2 << 20,
			Collection:  "users",
			Field:       "resume",
			PublicURL:   "http://localhost:3000/files",
			CompressPDF: true,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables
func (c *Config) applyEnv() error {
	setString("PORT", &c.Server.Port)
	setString("DATA_DIR", &c.Server.DataDir)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString("COLLEGES_SOURCE", &c.Dataset.Source)
	if v := os.Getenv("COLLEGES_LOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid COLLEGES_LOAD_TIMEOUT: %w", err)
		}
		c.Dataset.LoadTimeout = Duration(d)
	}
	if err := setBool("COLLEGES_SKIP_HEADER_STATES", &c.Dataset.SkipHeaderInStates); err != nil {
		return err
	}
	if err := setBool("COLLEGES_SKIP_HEADER_DISTRICTS", &c.Dataset.SkipHeaderInDistricts); err != nil {
		return err
	}

	setString("CAPTCHA_SECRET", &c.Captcha.Secret)
	setString("CAPTCHA_VERIFY_URL", &c.Captcha.VerifyURL)

	setString("RESUME_COLLECTION", &c.Resume.Collection)
	setString("RESUME_FIELD", &c.Resume.Field)
	setString("RESUME_PUBLIC_URL", &c.Resume.PublicURL)
	if v := os.Getenv("RESUME_MAX_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid RESUME_MAX_SIZE: %w", err)
		}
		c.Resume.MaxSize = n
	}
	return setBool("RESUME_COMPRESS_PDF", &c.Resume.CompressPDF)
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %q", c.Server.Port)
	}
	if strings.TrimSpace(c.Dataset.Source) == "" {
		return fmt.Errorf("dataset source is required")
	}
	if c.Dataset.LoadTimeout < 0 {
		return fmt.Errorf("load timeout must not be negative")
	}
	if c.Resume.MaxSize <= 0 {
		return fmt.Errorf("resume max size must be positive")
	}
	if c.Captcha.RateLimit <= 0 || c.Captcha.Burst <= 0 {
		return fmt.Errorf("captcha rate limit and burst must be positive")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
