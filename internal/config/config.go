// Package config loads plantary runtime settings through viper.
package config

import (
	"fmt"
	"plantary/internal/blob"
	"plantary/internal/core"
	"plantary/internal/intake"
	"plantary/internal/logging"
	"plantary/pkg/domain"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides; storage.driver is read from
// PLANTARY_STORAGE_DRIVER.
const EnvPrefix = "PLANTARY"

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// IntakeConfig configures seed artwork publication.
type IntakeConfig struct {
	PublicBaseURL string `mapstructure:"public_base_url"`
	MaxImageBytes int64  `mapstructure:"max_image_bytes"`
}

// PriceConfig holds price tables keyed by category name.
type PriceConfig struct {
	Plant   map[string]uint64 `mapstructure:"plant"`
	Harvest map[string]uint64 `mapstructure:"harvest"`
}

// Config holds all runtime configuration for a plantary process.
// Values are populated from plantary.toml, PLANTARY_* env vars, and CLI flags.
type Config struct {
	Admin         string             `mapstructure:"admin"`
	Collaborators []string           `mapstructure:"collaborators"`
	LogLevel      string             `mapstructure:"log_level"`
	HTTP          HTTPConfig         `mapstructure:"http"`
	Storage       core.StorageConfig `mapstructure:"storage"`
	Blob          blob.Config        `mapstructure:"blob"`
	Intake        IntakeConfig       `mapstructure:"intake"`
	Prices        PriceConfig        `mapstructure:"prices"`
}

// SetDefaults registers built-in defaults on v. Every key is registered so
// AutomaticEnv can see it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("admin", "")
	v.SetDefault("collaborators", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("storage.driver", string(core.StorageSQLite))
	v.SetDefault("storage.sqlite_path", "plantary.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("blob.driver", string(blob.DriverFilesystem))
	v.SetDefault("blob.fs_root", "./blobdata")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")
	v.SetDefault("blob.s3.session_token", "")
	v.SetDefault("blob.s3.path_style", false)
	v.SetDefault("intake.public_base_url", "")
	v.SetDefault("intake.max_image_bytes", intake.DefaultMaxImageBytes)
	defaults := core.DefaultPrices()
	for category, price := range defaults.Plant {
		v.SetDefault("prices.plant."+category.String(), uint64(price))
	}
	for category, price := range defaults.Harvest {
		v.SetDefault("prices.harvest."+category.String(), uint64(price))
	}
}

// BindEnv enables PLANTARY_* overrides with dots mapped to underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the global viper instance, applying
// built-in defaults for any values not set by config file, environment,
// or flags.
func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	BindEnv(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// AccessList returns the admin allowlist.
func (c Config) AccessList() core.AccessList {
	collaborators := make([]domain.AccountID, 0, len(c.Collaborators))
	for _, id := range c.Collaborators {
		collaborators = append(collaborators, domain.AccountID(strings.TrimSpace(id)))
	}
	return core.NewAccessList(domain.AccountID(c.Admin), collaborators...)
}

// PriceTable converts the named price tables.
func (c Config) PriceTable() (core.PriceTable, error) {
	plant, err := categoryPrices(c.Prices.Plant)
	if err != nil {
		return core.PriceTable{}, fmt.Errorf("prices.plant: %w", err)
	}
	harvest, err := categoryPrices(c.Prices.Harvest)
	if err != nil {
		return core.PriceTable{}, fmt.Errorf("prices.harvest: %w", err)
	}
	return core.PriceTable{Plant: plant, Harvest: harvest}, nil
}

func categoryPrices(named map[string]uint64) (map[domain.Category]domain.Balance, error) {
	out := make(map[domain.Category]domain.Balance, len(named))
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		category, err := domain.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out[category] = domain.Balance(named[name])
	}
	return out, nil
}

// Validate checks the admin identities, price tables and log level.
func (c Config) Validate() error {
	if err := c.AccessList().Validate(); err != nil {
		return fmt.Errorf("admin access list: %w", err)
	}
	if _, err := c.PriceTable(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr required")
	}
	return nil
}

// IntakeOptions returns the intake options derived from the configuration.
func (c Config) IntakeOptions() []intake.Option {
	return []intake.Option{
		intake.WithPublicBaseURL(c.Intake.PublicBaseURL),
		intake.WithMaxImageBytes(c.Intake.MaxImageBytes),
	}
}

// ServiceOptions returns the core options derived from the configuration.
func (c Config) ServiceOptions() ([]core.ServiceOption, error) {
	prices, err := c.PriceTable()
	if err != nil {
		return nil, err
	}
	list := c.AccessList()
	return []core.ServiceOption{
		core.WithAdmins(list.Owner(), list.Collaborators()...),
		core.WithPrices(prices),
	}, nil
}
