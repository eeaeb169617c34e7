package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// CLIFlags holds command-line overrides. A nil field means the flag was not set.
type CLIFlags struct {
	ConfigPath *string
	Port       *string
	LogLevel   *string
	DSN        *string
	NatsURL    *string
}

// AddFlags registers the configuration override flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", DefaultConfigFile, "path to the YAML config file")
	fs.StringP("port", "p", "", "HTTP listen port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("dsn", "", "PostgreSQL connection string")
	fs.String("nats-url", "", "NATS server URL (empty selects the in-process queue)")
}

// FlagsFrom collects the flags registered by AddFlags that were explicitly set.
func FlagsFrom(fs *pflag.FlagSet) CLIFlags {
	return CLIFlags{
		ConfigPath: changed(fs, "config"),
		Port:       changed(fs, "port"),
		LogLevel:   changed(fs, "log-level"),
		DSN:        changed(fs, "dsn"),
		NatsURL:    changed(fs, "nats-url"),
	}
}

// ParseFlags parses args into CLIFlags.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := pflag.NewFlagSet("showcase", pflag.ContinueOnError)
	AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}
	return FlagsFrom(fs), nil
}

// LoadWithCLI loads configuration with CLI flags applied last:
// defaults < YAML < .env < ENV < CLI. It returns the YAML path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, path, fmt.Errorf("config yaml: %w", err)
	}
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, path, fmt.Errorf("config dotenv: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.DSN != nil {
		cfg.Postgres.DSN = *flags.DSN
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
}

func changed(fs *pflag.FlagSet, name string) *string {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetString(name)
	if err != nil {
		return nil
	}
	return &v
}
