// Package config loads the settings shared by the edgar commands from an
// optional YAML file, .env files and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultMaxFieldSize   = 100000
	DefaultWorkers        = 4
	DefaultFormsRegex     = "10-Q.*|10-K.*"
	DefaultMarketShareTTL = time.Hour
)

type Config struct {
	DatabaseURL      string        `yaml:"database_url"`
	SQLitePath       string        `yaml:"sqlite_path"`
	DataDir          string        `yaml:"data_dir"`
	MaxFieldSize     int           `yaml:"max_field_size"`
	Workers          int           `yaml:"workers"`
	ScheduleInterval time.Duration `yaml:"schedule_interval"`
	FormsRegex       string        `yaml:"forms_regex"`
	SchemaFile       string        `yaml:"schema_file"`
	MarketShareTTL   time.Duration `yaml:"market_share_ttl"`
	ConvertHTML      bool          `yaml:"convert_html"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		SQLitePath:     "edgar.db",
		DataDir:        "data",
		MaxFieldSize:   DefaultMaxFieldSize,
		Workers:        DefaultWorkers,
		FormsRegex:     DefaultFormsRegex,
		MarketShareTTL: DefaultMarketShareTTL,
	}
}

// Load reads path (skipped when empty), then the .env files and the
// environment. Missing .env files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"DATABASE_URL":      &c.DatabaseURL,
		"EDGAR_SQLITE_PATH": &c.SQLitePath,
		"EDGAR_DATA_DIR":    &c.DataDir,
		"EDGAR_FORMS_REGEX": &c.FormsRegex,
		"EDGAR_SCHEMA_FILE": &c.SchemaFile,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"EDGAR_MAX_FIELD_SIZE": &c.MaxFieldSize,
		"EDGAR_WORKERS":        &c.Workers,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"EDGAR_SCHEDULE_INTERVAL": &c.ScheduleInterval,
		"EDGAR_MARKET_SHARE_TTL":  &c.MarketShareTTL,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv("EDGAR_CONVERT_HTML"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid EDGAR_CONVERT_HTML: %w", err)
		}
		c.ConvertHTML = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.MaxFieldSize <= 0 {
		return errors.New("max_field_size must be greater than 0")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be greater than 0")
	}
	if c.ScheduleInterval < 0 {
		return errors.New("schedule_interval must not be negative")
	}
	if _, err := c.Forms(); err != nil {
		return err
	}
	return nil
}

// Forms compiles the regular expression selecting the forms to load.
func (c *Config) Forms() (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + c.FormsRegex + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid forms_regex: %w", err)
	}
	return re, nil
}
