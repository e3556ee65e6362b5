package checker

import (
	"context"
	"encoding/json"
	"path"

	"go.uber.org/zap"

	"github.com/CoveMB/openzeppelin-upgrades/artifact"
	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/history"
)

// Cache is the snapshot cache used when loading reference artifacts from a
// git ref. Nil disables caching; tests and the CLI inject their own.
type Cache interface {
	Get(commitHash, artifactPath string) ([]byte, bool)
	Put(commitHash, artifactPath string, data []byte) error
}

// loadReference resolves the reference side of a check. A ref that names an
// existing directory is loaded straight from it; anything else is treated as
// a git revision and the artifact dir is read from that commit's tree.
func loadReference(ctx context.Context, opts *Options) (*artifact.Set, error) {
	ref := opts.OldRef
	if ref == "" {
		ref = opts.Config.Reference.Ref
	}

	// Directory reference: compare against another build output on disk.
	if ref != "" {
		if info, err := opts.FS.Stat(ref); err == nil && info.IsDir() {
			set, loadErr := artifact.Load(opts.FS, ref)
			if loadErr != nil {
				return nil, errors.Wrap(loadErr, errors.CodeInvalidArtifact,
					"checker: failed to load reference artifacts from "+ref)
			}
			opts.Logger.Debug("loaded reference artifacts from directory",
				zap.String("dir", ref))
			return set, nil
		}
	}

	repo, err := history.Open(ctx, &history.Options{FS: opts.FS})
	if err != nil {
		return nil, err
	}

	if ref == "" {
		if opts.CurrentVersion == "" {
			return nil, errors.New(errors.CodeInvalidInput,
				"checker: no reference given and no current version to select a release from")
		}
		ref, err = repo.PreviousRelease(ctx, opts.CurrentVersion, opts.Config.Reference.TagPrefix)
		if err != nil {
			return nil, err
		}
		opts.Logger.Info("selected previous release",
			zap.String("tag", ref),
			zap.String("current", opts.CurrentVersion))
	}

	artifactDir := opts.Config.ArtifactDir
	snapshot, err := snapshotAt(ctx, repo, ref, artifactDir, opts)
	if err != nil {
		return nil, err
	}

	set, err := artifact.Load(snapshot, ".")
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"checker: failed to load reference artifacts",
			map[string]interface{}{"ref": ref, "dir": artifactDir})
	}
	opts.Logger.Debug("loaded reference artifacts from ref",
		zap.String("ref", ref),
		zap.Int("contracts", len(set.Artifacts)))
	return set, nil
}

// snapshotAt materializes the artifact dir from the ref's commit tree,
// consulting the snapshot cache first. Cache entries hold the whole subtree
// as a path-to-content map; commit trees are immutable so hits need no
// freshness check.
//
//nolint:ireturn // callers consume the fs.Filesystem interface.
func snapshotAt(
	ctx context.Context,
	repo *history.Repo,
	ref, artifactDir string,
	opts *Options,
) (fs.Filesystem, error) {
	cache := opts.Cache

	resolved, err := repo.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if data, ok := cache.Get(resolved.Hash, artifactDir); ok {
			snap, decodeErr := decodeSnapshot(data)
			if decodeErr == nil {
				opts.Logger.Debug("snapshot cache hit",
					zap.String("commit", resolved.Hash),
					zap.String("dir", artifactDir))
				return snap, nil
			}
			// A corrupt entry is replaced on the way out.
		}
	}

	snap, err := repo.SnapshotDir(ctx, ref, artifactDir)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		data, encodeErr := encodeSnapshot(snap)
		if encodeErr == nil {
			if putErr := cache.Put(resolved.Hash, artifactDir, data); putErr != nil {
				opts.Logger.Warn("snapshot cache write failed", zap.Error(putErr))
			}
		}
	}

	return snap, nil
}

// encodeSnapshot serializes a snapshot filesystem as a path-to-content map.
func encodeSnapshot(fsys fs.Filesystem) ([]byte, error) {
	files := map[string][]byte{}
	if err := collectFiles(fsys, ".", files); err != nil {
		return nil, err
	}
	return json.Marshal(files)
}

// decodeSnapshot rebuilds an in-memory filesystem from a cache entry.
//
//nolint:ireturn // callers consume the fs.Filesystem interface.
func decodeSnapshot(data []byte) (fs.Filesystem, error) {
	var files map[string][]byte
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "checker: corrupt snapshot cache entry")
	}

	snap := fs.NewInMemoryFS()
	for name, content := range files {
		if err := snap.WriteFile(name, content, 0o644); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "checker: failed to rebuild snapshot")
		}
	}
	return snap, nil
}

// collectFiles walks dir recursively and records file contents keyed by
// slash-separated path relative to the walk root.
func collectFiles(fsys fs.Filesystem, dir string, files map[string][]byte) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		full := name
		if dir != "." {
			full = path.Join(dir, name)
		}

		if entry.IsDir() {
			if err := collectFiles(fsys, full, files); err != nil {
				return err
			}
			continue
		}

		data, err := fsys.ReadFile(full)
		if err != nil {
			return err
		}
		files[full] = data
	}
	return nil
}
