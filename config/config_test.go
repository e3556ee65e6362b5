package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

func writeConfig(t *testing.T, source string) fs.Filesystem {
	t.Helper()
	fsys := fs.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile(DefaultFileName, []byte(source), 0o644))
	return fsys
}

func TestLoadDefaults(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(context.Background(), fs.NewInMemoryFS(), "")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, "out", cfg.ArtifactDir)
		assert.Equal(t, "v", cfg.Reference.TagPrefix)
		assert.Equal(t, lint.FormatText, cfg.ReportFormat())
	})

	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		fsys := writeConfig(t, `artifacts: "build"`)
		cfg, err := Load(context.Background(), fsys, DefaultFileName)
		require.NoError(t, err)
		assert.Equal(t, "build", cfg.ArtifactDir)
		assert.Equal(t, DefaultTagPrefix, cfg.Reference.TagPrefix)
		assert.Equal(t, DefaultFormat, cfg.Format)
	})
}

func TestLoadFull(t *testing.T) {
	fsys := writeConfig(t, `
artifacts: "out"
format:    "sarif"
gapPattern: "^__gap.*$"

reference: {
	ref:       "v1.2.0"
	tagPrefix: "release-"
}

severities: {
	"no-retyped-variable": "warning"
}

ignore: [
	{rule: "missing-parent-init"},
	{contract: "contracts/Legacy.sol:Legacy"},
]
`)

	cfg, err := Load(context.Background(), fsys, DefaultFileName)
	require.NoError(t, err)

	assert.Equal(t, "v1.2.0", cfg.Reference.Ref)
	assert.Equal(t, "release-", cfg.Reference.TagPrefix)
	assert.Equal(t, lint.FormatSARIF, cfg.ReportFormat())

	opts := cfg.LintOptions()
	assert.Equal(t, lint.SeverityWarning, opts.Severities["no-retyped-variable"])
	require.Len(t, opts.Ignores, 2)
	assert.Equal(t, "missing-parent-init", opts.Ignores[0].Rule)
	assert.Equal(t, "contracts/Legacy.sol:Legacy", opts.Ignores[1].Contract)

	matcher := cfg.GapMatcher()
	assert.NotNil(t, matcher)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   errors.ErrorCode
	}{
		{
			name:   "malformed cue",
			source: `artifacts: "out`,
			code:   errors.CodeConfigDecodeFailed,
		},
		{
			name:   "unresolved value",
			source: `artifacts: string`,
			code:   errors.CodeConfigDecodeFailed,
		},
		{
			name:   "wrong type",
			source: `artifacts: 42`,
			code:   errors.CodeConfigDecodeFailed,
		},
		{
			name:   "unknown format",
			source: `format: "xml"`,
			code:   errors.CodeInvalidConfig,
		},
		{
			name:   "unknown severity",
			source: `severities: "no-deleted-variable": "fatal"`,
			code:   errors.CodeInvalidConfig,
		},
		{
			name:   "empty ignore entry",
			source: `ignore: [{}]`,
			code:   errors.CodeInvalidConfig,
		},
		{
			name:   "invalid gap pattern",
			source: `gapPattern: "["`,
			code:   errors.CodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := writeConfig(t, tt.source)
			_, err := Load(context.Background(), fsys, DefaultFileName)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code),
				"expected code %s, got %v", tt.code, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		require.NoError(t, Default().Validate())
	})

	t.Run("empty severity rule name", func(t *testing.T) {
		cfg := Default()
		cfg.Severities = map[string]string{"": "error"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
	})

	t.Run("lint options empty by default", func(t *testing.T) {
		opts := Default().LintOptions()
		assert.Nil(t, opts.Severities)
		assert.Empty(t, opts.Ignores)
	})
}
