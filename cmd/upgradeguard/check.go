package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CoveMB/openzeppelin-upgrades/checker"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/history"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// errUnsafeUpgrade signals a non-zero exit without an extra error line; the
// report already said everything.
var errUnsafeUpgrade = errors.New("upgrade is not safe")

var (
	oldRef         string
	newDir         string
	currentVersion string
	noCache        bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run all upgrade-safety rules against a reference version",
	Long: `Check loads build artifacts for the current version and a reference
version, runs every storage-layout and initializer rule, and reports the
issues. The reference is an artifact directory, a git revision, or, when
omitted, the previous release tag selected from --current-version.

Exits 1 when any error-severity issue remains.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := &checker.Options{
			FS:             fs.NewOSFS("."),
			Config:         cfg,
			OldRef:         oldRef,
			NewDir:         newDir,
			CurrentVersion: currentVersion,
			Logger:         logger,
		}
		if !noCache {
			opts.Cache = snapshotCache()
		}

		issues, err := checker.Check(cmd.Context(), opts)
		if err != nil {
			return err
		}

		reporter := lint.NewReporter(os.Stdout, cfg.ReportFormat())
		if err := reporter.Report(issues); err != nil {
			return err
		}

		if lint.HasErrors(issues) {
			return errUnsafeUpgrade
		}
		return nil
	},
}

// snapshotCache builds the on-disk cache; a failure only costs caching.
func snapshotCache() checker.Cache {
	cache, err := history.NewSnapshotCache()
	if err != nil {
		logger.Warn("snapshot cache unavailable", zap.Error(err))
		return nil
	}
	return cache
}

func init() {
	checkCmd.Flags().StringVar(&oldRef, "old", "",
		"reference version: artifact directory or git revision")
	checkCmd.Flags().StringVar(&newDir, "new", "",
		"artifact directory of the version under check (default from config)")
	checkCmd.Flags().StringVar(&currentVersion, "current-version", "",
		"semver of the version under check, for automatic release selection")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"disable the git snapshot cache")
}
