// Package config loads gateway configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses YAML values like "30s" or "5m" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full gateway configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Cache   CacheConfig   `yaml:"cache"`
	Payment PaymentConfig `yaml:"payment"`
	Pricing PricingConfig `yaml:"pricing"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LedgerConfig configures the registry RPC client.
type LedgerConfig struct {
	RPCURL  string   `yaml:"rpc_url"`
	Timeout Duration `yaml:"timeout"`
}

// CacheConfig configures the reputation cache.
type CacheConfig struct {
	TTL           Duration `yaml:"ttl"`
	SweepInterval string   `yaml:"sweep_interval"` // cron descriptor, e.g. "@every 1m"
}

// PaymentConfig configures the x402 gate and facilitator client.
type PaymentConfig struct {
	MerchantAddress string   `yaml:"merchant_address"`
	FacilitatorURL  string   `yaml:"facilitator_url"`
	Network         string   `yaml:"network"`
	Timeout         Duration `yaml:"timeout"`
}

// PricingConfig carries per-service base-price overrides in micro-units.
type PricingConfig struct {
	BasePricesMicro map[string]int64 `yaml:"base_prices_micro"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8090"},
		Ledger: LedgerConfig{
			RPCURL:  "http://localhost:8545",
			Timeout: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			TTL:           Duration(60 * time.Second),
			SweepInterval: "@every 1m",
		},
		Payment: PaymentConfig{
			FacilitatorURL: "https://facilitator.ghostspeak.io",
			Network:        "ghostspeak",
			Timeout:        Duration(15 * time.Second),
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the file when it exists, otherwise returns defaults
// with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GHOSTGATE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("GHOSTGATE_LEDGER_RPC_URL"); v != "" {
		c.Ledger.RPCURL = v
	}
	if v := os.Getenv("GHOSTGATE_CACHE_TTL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Cache.TTL = Duration(time.Duration(secs) * time.Second)
		}
	}
	if v := os.Getenv("GHOSTGATE_MERCHANT_ADDRESS"); v != "" {
		c.Payment.MerchantAddress = v
	}
	if v := os.Getenv("GHOSTGATE_FACILITATOR_URL"); v != "" {
		c.Payment.FacilitatorURL = v
	}
	if v := os.Getenv("GHOSTGATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) validate() error {
	if c.Ledger.RPCURL == "" {
		return fmt.Errorf("ledger.rpc_url is required")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Payment.FacilitatorURL == "" {
		return fmt.Errorf("payment.facilitator_url is required")
	}
	for id, price := range c.Pricing.BasePricesMicro {
		if price <= 0 {
			return fmt.Errorf("pricing.base_prices_micro[%s] must be positive", id)
		}
	}
	return nil
}
