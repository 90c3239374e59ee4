/*
Package config loads the faucet's configuration.

SOURCES, in override order:
  1. JSON config file (the canonical surface: transfer amounts,
     ceilings, node list, mosaic/message definitions, public key)
  2. FAUCET_* environment variables for deployment-specific values
     (listen address, store backend, DSNs, key file paths). cmd/server
     loads a .env file first, so local development overrides live next
     to the binary instead of in the shell profile.

Amount-valued fields are decimal and denominated in XQC; they convert
to canonical micro-units via the accessors.
*/
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/qora/testnet-faucet/faucet"
	"github.com/qora/testnet-faucet/nem"
)

// Config is the full configuration surface.
type Config struct {
	// Transfer policy.
	DefaultTransferAmount decimal.Decimal `json:"default_transfer_amount"`
	TransferMaximumAmount decimal.Decimal `json:"transfer_maximum_amount"`
	DailyMaximumAmount    decimal.Decimal `json:"daily_maximum_amount"`

	// Network.
	NodeList  []string              `json:"node_list"`
	PublicKey string                `json:"public_key"`
	Mosaic    nem.MosaicDefinition  `json:"mosaic"`
	Message   nem.MessageDefinition `json:"message"`

	// Key material.
	PublicKeyPath  string `json:"public_key_path"`
	PrivateKeyPath string `json:"private_key_path"`

	// Server.
	ListenAddr string `json:"listen_addr"`
	Store      string `json:"store"` // memory | sqlite | postgres | redis

	// Backend DSNs.
	SQLitePath   string   `json:"sqlite_path"`
	PostgresDSN  string   `json:"postgres_dsn"`
	RedisAddr    string   `json:"redis_addr"`
	KafkaBrokers []string `json:"kafka_brokers"`
	KafkaTopic   string   `json:"kafka_topic"`

	// Front-end rate limiting (requests per second per client).
	RateLimitRPS   float64 `json:"rate_limit_rps"`
	RateLimitBurst int     `json:"rate_limit_burst"`
}

// Load reads the JSON file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := defaults()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ListenAddr:     ":8080",
		Store:          "sqlite",
		SQLitePath:     "faucet.db",
		PublicKeyPath:  "key.pub",
		PrivateKeyPath: "key",
		RateLimitRPS:   1,
		RateLimitBurst: 5,
	}
}

// applyEnv overrides deployment-specific fields from FAUCET_* vars.
func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.ListenAddr, "FAUCET_LISTEN_ADDR")
	set(&c.Store, "FAUCET_STORE")
	set(&c.SQLitePath, "FAUCET_SQLITE_PATH")
	set(&c.PostgresDSN, "FAUCET_POSTGRES_DSN")
	set(&c.RedisAddr, "FAUCET_REDIS_ADDR")
	set(&c.PublicKeyPath, "FAUCET_PUBLIC_KEY_PATH")
	set(&c.PrivateKeyPath, "FAUCET_PRIVATE_KEY_PATH")
	if v := os.Getenv("FAUCET_KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = strings.Split(v, ",")
	}
}

// Validate rejects configurations the orchestrator cannot run with.
func (c *Config) Validate() error {
	if len(c.NodeList) == 0 {
		return errors.New("node_list must name at least one node")
	}
	if c.PublicKey == "" {
		return errors.New("public_key is required")
	}
	if !c.DefaultTransferAmount.IsPositive() {
		return errors.New("default_transfer_amount must be positive")
	}
	if !c.TransferMaximumAmount.IsPositive() {
		return errors.New("transfer_maximum_amount must be positive")
	}
	if !c.DailyMaximumAmount.IsPositive() {
		return errors.New("daily_maximum_amount must be positive")
	}
	// Amounts must land on whole micro-units; a finer value would be
	// silently truncated by integer-backed ledger stores.
	for name, v := range map[string]decimal.Decimal{
		"default_transfer_amount": c.DefaultTransferAmount,
		"transfer_maximum_amount": c.TransferMaximumAmount,
		"daily_maximum_amount":    c.DailyMaximumAmount,
	} {
		if !v.Mul(faucet.MicroPerXQC).IsInteger() {
			return fmt.Errorf("%s is finer than one micro-unit", name)
		}
	}
	switch c.Store {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store)
	}
	if c.Store == "postgres" && c.PostgresDSN == "" {
		return errors.New("postgres store requires postgres_dsn")
	}
	if c.Store == "redis" && c.RedisAddr == "" {
		return errors.New("redis store requires redis_addr")
	}
	return nil
}

// DefaultAmount is the transfer amount used when a request omits one.
func (c *Config) DefaultAmount() faucet.Amount {
	return faucet.FromXQC(c.DefaultTransferAmount)
}

// Limits converts the configured ceilings to canonical micro-units.
func (c *Config) Limits() faucet.Limits {
	return faucet.Limits{
		MaxPerAddress: faucet.FromXQC(c.TransferMaximumAmount),
		MaxPerDay:     faucet.FromXQC(c.DailyMaximumAmount),
	}
}
