// Package checker orchestrates a full upgrade-safety check: it loads build
// artifacts for the current and reference versions, runs every lint rule
// over them, and renders the result. The CLI is a thin wrapper around this
// package so the whole pipeline stays testable against in-memory trees.
package checker

import (
	"context"

	"go.uber.org/zap"

	"github.com/CoveMB/openzeppelin-upgrades/artifact"
	"github.com/CoveMB/openzeppelin-upgrades/config"
	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
	initrules "github.com/CoveMB/openzeppelin-upgrades/lint/rules/initializer"
	storagerules "github.com/CoveMB/openzeppelin-upgrades/lint/rules/storage"
)

// Options configures a check run.
type Options struct {
	// FS is the project root filesystem.
	FS fs.Filesystem

	// Config is the loaded checker configuration.
	Config *config.Config

	// OldRef selects the reference version: either a directory of build
	// artifacts or a git revision. Empty falls back to Config.Reference.Ref,
	// then to automatic previous-release selection using CurrentVersion.
	OldRef string

	// NewDir is the build output directory of the version under check.
	// Empty falls back to Config.ArtifactDir.
	NewDir string

	// CurrentVersion is the semver of the version under check, used for
	// automatic previous-release selection when no explicit ref is given.
	CurrentVersion string

	// Cache caches artifact subtrees extracted from git refs. Nil disables
	// caching.
	Cache Cache

	// Logger receives progress logging. Required.
	Logger *zap.Logger
}

// AllRules returns every built-in rule.
func AllRules() []lint.Rule {
	rules := storagerules.Rules()
	return append(rules, initrules.Rules()...)
}

// Check runs all rules against the two versions and returns the surviving
// issues, sorted by location.
func Check(ctx context.Context, opts *Options) ([]lint.Issue, error) {
	current, reference, err := loadSides(ctx, opts)
	if err != nil {
		return nil, err
	}

	lintCtx := lint.NewContext(reference, current).
		WithGapMatcher(opts.Config.GapMatcher())

	linter := lint.New(*opts.Config.LintOptions(), AllRules()...)
	issues := linter.Run(lintCtx)

	opts.Logger.Info("check complete",
		zap.Int("contracts", len(current.Artifacts)),
		zap.Int("issues", len(issues)))

	return issues, nil
}

// Diff loads both sides and returns the per-contract deltas without running
// any rules.
func Diff(ctx context.Context, opts *Options) (*DiffResult, error) {
	current, reference, err := loadSides(ctx, opts)
	if err != nil {
		return nil, err
	}
	return diffSets(reference, current), nil
}

// loadSides loads the current artifact set and the reference set it is
// checked against.
func loadSides(ctx context.Context, opts *Options) (current, reference *artifact.Set, err error) {
	newDir := opts.NewDir
	if newDir == "" {
		newDir = opts.Config.ArtifactDir
	}

	current, err = artifact.Load(opts.FS, newDir)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInvalidArtifact,
			"checker: failed to load current artifacts from "+newDir)
	}
	opts.Logger.Debug("loaded current artifacts",
		zap.String("dir", newDir),
		zap.Int("contracts", len(current.Artifacts)),
		zap.Int("skipped", len(current.Skipped)))

	reference, err = loadReference(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	return current, reference, nil
}
