package config

import (
	"github.com/spf13/pflag"
)

// InfoConfig holds configuration for the info command.
type InfoConfig struct {
	Tick         int64
	TickSet      bool
	SqrtPriceX96 string
	LogLevel     string
}

// LoadInfo merges config file, environment variables, and flags into InfoConfig.
func LoadInfo(cfgFile string, flags *pflag.FlagSet) (InfoConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return InfoConfig{}, err
	}

	v.SetDefault("log-level", "info")

	cfg := InfoConfig{
		Tick:         v.GetInt64("tick"),
		SqrtPriceX96: v.GetString("sqrt-price-x96"),
		LogLevel:     v.GetString("log-level"),
	}
	if flags != nil {
		cfg.TickSet = flags.Changed("tick")
	}

	return cfg, nil
}
