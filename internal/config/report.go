package config

import (
	"github.com/spf13/pflag"
)

// ReportConfig holds configuration for the report command.
type ReportConfig struct {
	Input         string
	WindowSeconds uint32
	Fee           uint32
	BatchSize     int
	PGDSN         string
	LogLevel      string
}

// LoadReport merges config file, environment variables, and flags.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReportConfig{}, err
	}

	v.SetDefault("input", "./data/events.jsonl")
	v.SetDefault("window", 3600)
	v.SetDefault("fee", 3000)
	v.SetDefault("batch-size", 1000)
	v.SetDefault("log-level", "info")

	cfg := ReportConfig{
		Input:         v.GetString("input"),
		WindowSeconds: v.GetUint32("window"),
		Fee:           v.GetUint32("fee"),
		BatchSize:     v.GetInt("batch-size"),
		PGDSN:         v.GetString("pg-dsn"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}
