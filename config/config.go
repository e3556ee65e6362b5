// Package config loads checker configuration from an upgradeguard.cue file.
// Configuration is optional: when the file is absent every setting falls back
// to its default, while a file that exists but does not decode is a hard
// error so misconfigured CI runs fail loudly instead of silently checking
// with defaults.
package config

import (
	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// DefaultFileName is the configuration file looked up in the project root.
const DefaultFileName = "upgradeguard.cue"

// Default values applied when the corresponding setting is absent.
const (
	DefaultArtifactDir = "out"
	DefaultTagPrefix   = "v"
	DefaultFormat      = "text"
)

// Reference selects the base version checked against.
type Reference struct {
	// Ref pins the comparison base to an explicit revision (tag, branch, or
	// commit SHA). When empty the previous release tag is selected
	// automatically.
	Ref string `json:"ref"`

	// TagPrefix filters release tags during automatic selection.
	TagPrefix string `json:"tagPrefix"`
}

// IgnoreEntry suppresses issues by rule name, contract name, or both.
// An empty field matches everything.
type IgnoreEntry struct {
	Rule     string `json:"rule"`
	Contract string `json:"contract"`
}

// Config is the decoded checker configuration.
type Config struct {
	// ArtifactDir is the build output directory holding artifacts.
	ArtifactDir string `json:"artifacts"`

	// Reference configures base-version selection.
	Reference Reference `json:"reference"`

	// Format is the report format: text, json, or sarif.
	Format string `json:"format"`

	// GapPattern overrides the reserved-slot label pattern.
	GapPattern string `json:"gapPattern"`

	// Severities overrides per-rule severities, keyed by rule name with
	// values "error", "warning", or "info".
	Severities map[string]string `json:"severities"`

	// Ignore suppresses matching issues.
	Ignore []IgnoreEntry `json:"ignore"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ArtifactDir: DefaultArtifactDir,
		Reference:   Reference{TagPrefix: DefaultTagPrefix},
		Format:      DefaultFormat,
	}
}

// applyDefaults fills unset fields after decoding.
func (c *Config) applyDefaults() {
	if c.ArtifactDir == "" {
		c.ArtifactDir = DefaultArtifactDir
	}
	if c.Reference.TagPrefix == "" {
		c.Reference.TagPrefix = DefaultTagPrefix
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
}

// Validate checks that every decoded setting is usable.
func (c *Config) Validate() error {
	if _, ok := lint.ParseFormat(c.Format); !ok {
		return errors.Newf(errors.CodeInvalidConfig, "config: unknown format %q", c.Format)
	}

	for rule, name := range c.Severities {
		if rule == "" {
			return errors.New(errors.CodeInvalidConfig, "config: severity override with empty rule name")
		}
		if _, ok := lint.ParseSeverity(name); !ok {
			return errors.Newf(errors.CodeInvalidConfig,
				"config: unknown severity %q for rule %s", name, rule)
		}
	}

	for _, entry := range c.Ignore {
		if entry.Rule == "" && entry.Contract == "" {
			return errors.New(errors.CodeInvalidConfig,
				"config: ignore entry must name a rule or a contract")
		}
	}

	if _, err := layout.NewGapMatcher(c.GapPattern); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig,
			"config: invalid gap pattern "+c.GapPattern)
	}

	return nil
}

// LintOptions converts the configuration into linter options.
// The configuration must have been validated.
func (c *Config) LintOptions() *lint.Options {
	opts := &lint.Options{}

	if len(c.Severities) > 0 {
		opts.Severities = make(map[string]lint.Severity, len(c.Severities))
		for rule, name := range c.Severities {
			sev, _ := lint.ParseSeverity(name)
			opts.Severities[rule] = sev
		}
	}

	for _, entry := range c.Ignore {
		opts.Ignores = append(opts.Ignores, lint.Ignore{
			Rule:     entry.Rule,
			Contract: entry.Contract,
		})
	}

	return opts
}

// GapMatcher compiles the configured gap pattern.
// The configuration must have been validated.
func (c *Config) GapMatcher() *layout.GapMatcher {
	return layout.MustGapMatcher(c.GapPattern)
}

// ReportFormat returns the configured report format.
// The configuration must have been validated.
func (c *Config) ReportFormat() lint.Format {
	format, _ := lint.ParseFormat(c.Format)
	return format
}
