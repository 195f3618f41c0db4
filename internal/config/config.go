package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/joshdurbin/shortenurl/internal/domain"
	"github.com/joshdurbin/shortenurl/internal/repository/sqlstore"
)

const (
	appName    = "shortenurl"
	fileName   = "shortenurl.toml"
	configType = "toml"
	envPrefix  = "SHORTENURL"

	keyDatabaseURL = "database_url"
	keyDomain      = "domain"
)

// Config holds the persisted settings of the tool
type Config struct {
	DatabaseURL string `mapstructure:"database_url" validate:"required,dburl"`
	Domain      string `mapstructure:"domain" validate:"required,hostname_port|hostname_rfc1123"`
}

// RuntimeConfig holds per-invocation settings taken from flags
type RuntimeConfig struct {
	Timeout      time.Duration
	MigrateDelay time.Duration
	Verbose      bool
	Metrics      bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("mapstructure")
	})
	_ = v.RegisterValidation("dburl", func(fl validator.FieldLevel) bool {
		_, _, err := sqlstore.ParseDatabaseURL(fl.Field().String())
		return err == nil
	})
	return v
}

// New creates a new config with the given parameters
func New(databaseURL, domainName string) (*Config, error) {
	cfg := &Config{
		DatabaseURL: strings.TrimSpace(databaseURL),
		Domain:      strings.TrimSpace(domainName),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewRuntime creates the runtime settings for one invocation
func NewRuntime(timeout, migrateDelay time.Duration, verbose, metrics bool) (*RuntimeConfig, error) {
	rc := &RuntimeConfig{
		Timeout:      timeout,
		MigrateDelay: migrateDelay,
		Verbose:      verbose,
		Metrics:      metrics,
	}

	if rc.Timeout <= 0 {
		return nil, fmt.Errorf("%w: operation timeout must be positive, got: %v", domain.ErrConfig, rc.Timeout)
	}
	if rc.MigrateDelay < 0 {
		return nil, fmt.Errorf("%w: migrate delay cannot be negative, got: %v", domain.ErrConfig, rc.MigrateDelay)
	}

	return rc, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %w", domain.ErrConfig, err)
	}

	problems := lo.Map(fieldErrors, func(fe validator.FieldError, _ int) string {
		return describe(fe)
	})
	return fmt.Errorf("%w: %s", domain.ErrConfig, strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	switch {
	case fe.Tag() == "required":
		return fmt.Sprintf("%s cannot be empty", fe.Field())
	case fe.Field() == keyDatabaseURL:
		return fmt.Sprintf("%s %q is not a supported postgres:// or sqlite connection string", fe.Field(), fe.Value())
	case fe.Field() == keyDomain:
		return fmt.Sprintf("%s %q must be a host name such as foo.com", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// checkPath accepts only paths that viper reads and writes as TOML
func checkPath(path string) error {
	switch ext := filepath.Ext(path); ext {
	case "", "." + configType:
		return nil
	default:
		return fmt.Errorf("%w: config file %s must use the .%s extension, got %q", domain.ErrConfig, path, configType, ext)
	}
}

// DefaultPath returns the per-user location of the config file
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName, fileName), nil
}

// Load reads and validates the config file at path. SHORTENURL_DATABASE_URL
// and SHORTENURL_DOMAIN override the file, and may stand in for it entirely.
func Load(path string) (*Config, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{keyDatabaseURL, keyDomain} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to read %s: %w", domain.ErrConfig, path, err)
		}
		if !v.IsSet(keyDatabaseURL) || !v.IsSet(keyDomain) {
			return nil, fmt.Errorf("%w: config file %s not found, run `shortenurl config` first", domain.ErrConfig, path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %w", domain.ErrConfig, path, err)
	}

	return New(cfg.DatabaseURL, cfg.Domain)
}

// Save validates cfg and writes it to path, creating the directory if needed
func Save(path string, cfg *Config) error {
	if err := checkPath(path); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.SetConfigPermissions(0o600)
	v.Set(keyDatabaseURL, cfg.DatabaseURL)
	v.Set(keyDomain, cfg.Domain)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}
