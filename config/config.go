// Package config loads the pricing service settings from a TOML file with
// environment overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"budgetengine/services"
)

// Config holds all service configuration.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Cache    CacheConfig    `toml:"cache"`
	Log      LogConfig      `toml:"log"`
	Currency CurrencyConfig `toml:"currency"`
}

// EngineConfig holds the engine heuristics and default policies.
type EngineConfig struct {
	TaxRateWarnPercent float64 `toml:"tax_rate_warn_percent"`
	StandardShiftHours float64 `toml:"standard_shift_hours"`
	DefaultTaxBase     string  `toml:"default_tax_base"`
	DefaultAllocation  string  `toml:"default_allocation"`
	BatchConcurrency   int     `toml:"batch_concurrency"`
}

// CacheConfig sizes the memo cache.
type CacheConfig struct {
	Size int `toml:"size"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Mode string `toml:"mode"`
}

// CurrencyConfig selects how money is printed in exports and the CLI.
type CurrencyConfig struct {
	Code string `toml:"code"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			TaxRateWarnPercent: 50,
			StandardShiftHours: 8,
			DefaultTaxBase:     string(services.TaxBaseCost),
			DefaultAllocation:  string(services.AllocationSteady),
			BatchConcurrency:   4,
		},
		Cache:    CacheConfig{Size: services.DefaultCacheSize},
		Log:      LogConfig{Mode: "development"},
		Currency: CurrencyConfig{Code: "BRL"},
	}
}

// Path returns the config file location, BUDGET_CONFIG or ./budget.toml.
func Path() string {
	return getString("BUDGET_CONFIG", "budget.toml")
}

// Load reads the config file at path, returning defaults if it doesn't
// exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.Log.Mode = getString("BUDGET_LOG_MODE", cfg.Log.Mode)
	cfg.Cache.Size = getInt("BUDGET_CACHE_SIZE", cfg.Cache.Size)
	return cfg, nil
}

// EngineOptions converts the engine section into engine options.
func (c Config) EngineOptions() services.EngineOptions {
	return services.EngineOptions{
		TaxRateWarnPercent: c.Engine.TaxRateWarnPercent,
		StandardShiftHours: c.Engine.StandardShiftHours,
		Allocation:         c.Allocation(),
		TaxBase:            c.TaxBase(),
	}
}

// TaxBase is the default tax base policy for scenarios that omit one.
func (c Config) TaxBase() services.TaxBase {
	if c.Engine.DefaultTaxBase == string(services.TaxBasePrice) {
		return services.TaxBasePrice
	}
	return services.TaxBaseCost
}

// Allocation is the default allocation policy for scenarios that omit one.
func (c Config) Allocation() services.Allocation {
	if c.Engine.DefaultAllocation == string(services.AllocationSpread) {
		return services.AllocationSpread
	}
	return services.AllocationSteady
}

// CurrencyFormat returns the configured currency preset.
func (c Config) CurrencyFormat() services.Currency {
	return services.CurrencyByCode(c.Currency.Code)
}

func getString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
