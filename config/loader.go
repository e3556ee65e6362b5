package config

import (
	"context"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
)

// Load reads and decodes the configuration file at path. A missing file is
// not an error and yields Default(); anything else that goes wrong is.
func Load(ctx context.Context, fsys fs.Filesystem, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "config: load cancelled")
	}
	if path == "" {
		path = DefaultFileName
	}

	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeConfigLoadFailed,
			"config: failed to probe configuration file",
			map[string]interface{}{"path": path})
	}
	if !exists {
		return Default(), nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeConfigLoadFailed,
			"config: failed to read configuration file",
			map[string]interface{}{"path": path})
	}

	cfg, err := decode(data, path)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode compiles the CUE source and decodes it into a Config.
func decode(data []byte, path string) (*Config, error) {
	cuectx := cuecontext.New()

	value := cuectx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeConfigDecodeFailed,
			"config: failed to compile configuration",
			map[string]interface{}{"path": path})
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeConfigDecodeFailed,
			"config: configuration has unresolved values",
			map[string]interface{}{"path": path})
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeConfigDecodeFailed,
			"config: failed to decode configuration",
			map[string]interface{}{"path": path})
	}
	return &cfg, nil
}
