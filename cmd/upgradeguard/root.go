package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CoveMB/openzeppelin-upgrades/config"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

var (
	// Global flags.
	configPath string
	formatName string
	logLevel   string
	logFormat  string

	// Built in PersistentPreRunE, shared by all subcommands.
	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "upgradeguard",
	Short: "Storage-layout and initializer safety checks for upgradeable contracts",
	Long: `upgradeguard validates that a new version of an upgradeable contract can
safely replace a deployed one: storage layouts stay append-only, reserved
gaps shrink exactly as much as new variables consume, ERC-7201 namespaces
stay put, and initializer chains call every parent exactly once.

It reads Foundry or Hardhat build artifacts and compares against either
another artifact directory or a git ref of the same repository.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = buildLogger(logLevel, logFormat)
		if err != nil {
			return err
		}

		cfg, err = config.Load(cmd.Context(), fs.NewOSFS("."), configPath)
		if err != nil {
			return err
		}

		// --format beats the config file.
		if formatName != "" {
			if _, ok := lint.ParseFormat(formatName); !ok {
				return fmt.Errorf("unknown format %q", formatName)
			}
			cfg.Format = formatName
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// buildLogger constructs the zap logger from the CLI flags.
func buildLogger(level, format string) (*zap.Logger, error) {
	parsedLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	var zapCfg zap.Config
	switch format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parsedLevel)

	return zapCfg.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the configuration file (default upgradeguard.cue)")
	rootCmd.PersistentFlags().StringVar(&formatName, "format", "",
		"report format: text, json, or sarif")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console",
		"log encoder: console or json")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(diffCmd)
}
