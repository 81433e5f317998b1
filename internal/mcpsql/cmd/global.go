package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kiosk404/sqlite-mcp/internal/sqlmcp/options"
	"github.com/kiosk404/sqlite-mcp/pkg/logger"
)

const (
	flagConfig = "config"
	envPrefix  = "MCPSQL"
)

var globalConfigFile string

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&globalConfigFile, flagConfig, "c", "",
		"Read options from this YAML, JSON or TOML file. Flags and MCPSQL_* environment variables take precedence.")
}

// loadConfig reads the optional config file and environment into viper.
func loadConfig(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if globalConfigFile == "" {
		return nil
	}
	v.SetConfigFile(globalConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %q: %w", globalConfigFile, err)
	}
	return nil
}

// completeOptions merges the config file, environment and flags into opts,
// then applies the log options.
func completeOptions(v *viper.Viper, opts *options.Options) error {
	if err := loadConfig(v); err != nil {
		return err
	}
	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	if errs := opts.LogOptions.Validate(); len(errs) > 0 {
		return errs[0]
	}
	if err := logger.SetLevel(opts.LogOptions.Level); err != nil {
		return err
	}
	if opts.LogOptions.File != "" {
		if err := logger.InitLog(opts.LogOptions.File); err != nil {
			return err
		}
	}
	logger.Debug("[mcpsql] options: %s", opts)
	return nil
}
