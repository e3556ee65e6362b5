package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/CoveMB/openzeppelin-upgrades/checker"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Print the raw storage-layout comparison without running rules",
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

		result, err := checker.Diff(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return checker.WriteDiff(os.Stdout, result, cfg.ReportFormat())
	},
}

func init() {
	diffCmd.Flags().StringVar(&oldRef, "old", "",
		"reference version: artifact directory or git revision")
	diffCmd.Flags().StringVar(&newDir, "new", "",
		"artifact directory of the version under check (default from config)")
	diffCmd.Flags().StringVar(&currentVersion, "current-version", "",
		"semver of the version under check, for automatic release selection")
	diffCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"disable the git snapshot cache")
}
