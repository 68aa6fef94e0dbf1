// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	RPCURL            string  `mapstructure:"rpc_url"`
	WSURL             string  `mapstructure:"ws_url"`
	AmmProgramID      string  `mapstructure:"amm_program_id"`
	BuyAmountSol      float64 `mapstructure:"buy_amount_sol"`
	SellTargetPercent float64 `mapstructure:"sell_target_percent"`
	PollIntervalSec   int     `mapstructure:"poll_interval_sec"`
	ComputeUnitLimit  uint32  `mapstructure:"compute_unit_limit"`
	ComputeUnitPrice  uint64  `mapstructure:"compute_unit_price"`
	ConfirmTimeoutSec int     `mapstructure:"confirm_timeout_sec"`
	MaxBuyAmountRaw   uint64  `mapstructure:"max_buy_amount_raw"`
	DebugLogging      bool    `mapstructure:"debug_logging"`
	LogFile           string  `mapstructure:"log_file"`

	// Secrets, environment only (SNIPER_WALLET_PRIVATE_KEY, SNIPER_MONGO_URI).
	WalletPrivateKey string `mapstructure:"-"`
	MongoURI         string `mapstructure:"-"`
}

const (
	DefaultPollIntervalSec   = 60
	DefaultComputeUnitLimit  = 200_000
	DefaultComputeUnitPrice  = 10_000
	DefaultConfirmTimeoutSec = 30
	DefaultMaxBuyAmountRaw   = 1_000_000_000_000
	DefaultSellTargetPercent = 2
	DefaultLogFile           = "sniper.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"poll_interval_sec":   DefaultPollIntervalSec,
		"compute_unit_limit":  DefaultComputeUnitLimit,
		"compute_unit_price":  DefaultComputeUnitPrice,
		"confirm_timeout_sec": DefaultConfirmTimeoutSec,
		"max_buy_amount_raw":  DefaultMaxBuyAmountRaw,
		"sell_target_percent": DefaultSellTargetPercent,
		"log_file":            DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is required")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.WSURL == "" {
		return errors.New("ws_url is required")
	}
	if err := validateURL(cfg.WSURL, "ws"); err != nil {
		return errors.New("invalid WebSocket URL protocol")
	}
	if cfg.AmmProgramID == "" {
		return errors.New("amm_program_id is required")
	}
	if cfg.WalletPrivateKey == "" {
		return errors.New("missing SNIPER_WALLET_PRIVATE_KEY in environment")
	}
	if cfg.MongoURI == "" {
		return errors.New("missing SNIPER_MONGO_URI in environment")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.BuyAmountSol <= 0 {
		return errors.New("invalid buy_amount_sol")
	}
	if cfg.SellTargetPercent <= 0 {
		return errors.New("invalid sell_target_percent")
	}
	if cfg.PollIntervalSec <= 0 {
		return errors.New("invalid poll_interval_sec")
	}
	if cfg.ComputeUnitLimit == 0 {
		return errors.New("invalid compute_unit_limit")
	}
	if cfg.ConfirmTimeoutSec <= 0 {
		return errors.New("invalid confirm_timeout_sec")
	}
	if cfg.MaxBuyAmountRaw == 0 {
		return errors.New("invalid max_buy_amount_raw")
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix("SNIPER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg.WalletPrivateKey = v.GetString("WALLET_PRIVATE_KEY")
	cfg.MongoURI = v.GetString("MONGO_URI")

	if envRPC := v.GetString("RPC_URL"); envRPC != "" {
		cfg.RPCURL = envRPC
	}
	if envWS := v.GetString("WS_URL"); envWS != "" {
		cfg.WSURL = envWS
	}
}
