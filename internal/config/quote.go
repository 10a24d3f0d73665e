package config

import (
	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Scenario          string
	ZeroForOne        bool
	AmountSpecified   string
	SqrtPriceLimitX96 string
	LogLevel          string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return QuoteConfig{}, err
	}

	v.SetDefault("log-level", "info")

	cfg := QuoteConfig{
		Scenario:          v.GetString("scenario"),
		ZeroForOne:        v.GetBool("zero-for-one"),
		AmountSpecified:   v.GetString("amount"),
		SqrtPriceLimitX96: v.GetString("sqrt-price-limit"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}
