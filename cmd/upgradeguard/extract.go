package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/CoveMB/openzeppelin-upgrades/artifact"
	"github.com/CoveMB/openzeppelin-upgrades/checker"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
)

var extractCmd = &cobra.Command{
	Use:   "extract [dir]",
	Short: "Print the storage layouts extracted from a build output directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.ArtifactDir
		if len(args) == 1 {
			dir = args[0]
		}

		set, err := artifact.Load(fs.NewOSFS("."), dir)
		if err != nil {
			return err
		}

		return checker.WriteLayouts(os.Stdout, set, cfg.ReportFormat())
	},
}
