package history

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"

	"github.com/adrg/xdg"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
)

// cacheAppDir is the subdirectory of the XDG cache home used for snapshots.
const cacheAppDir = "upgradeguard"

// SnapshotCache stores layout snapshots extracted from git refs so repeated
// checks against the same base ref skip artifact decoding. Entries are keyed
// by commit hash and artifact path; a commit tree is immutable, so entries
// never expire.
type SnapshotCache struct {
	fs   fs.Filesystem
	base string
}

// NewSnapshotCache creates a cache rooted under the user's XDG cache dir.
func NewSnapshotCache() (*SnapshotCache, error) {
	base := path.Join(xdg.CacheHome, cacheAppDir)
	cacheFS := fs.NewOSFS("/")
	if err := cacheFS.MkdirAll(base, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal,
			"history: failed to create cache dir "+base)
	}
	return &SnapshotCache{fs: cacheFS, base: base}, nil
}

// NewSnapshotCacheAt creates a cache rooted at base within the given
// filesystem. Tests use this with an in-memory filesystem.
func NewSnapshotCacheAt(fsys fs.Filesystem, base string) *SnapshotCache {
	return &SnapshotCache{fs: fsys, base: base}
}

// Get returns the cached snapshot for the commit hash and artifact path, or
// false when no entry exists. Read failures are treated as misses.
func (c *SnapshotCache) Get(commitHash, artifactPath string) ([]byte, bool) {
	data, err := c.fs.ReadFile(c.entryPath(commitHash, artifactPath))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores a snapshot for the commit hash and artifact path.
func (c *SnapshotCache) Put(commitHash, artifactPath string, data []byte) error {
	entry := c.entryPath(commitHash, artifactPath)
	if err := c.fs.MkdirAll(path.Dir(entry), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeInternal,
			"history: failed to create cache entry dir")
	}
	if err := c.fs.WriteFile(entry, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeInternal,
			"history: failed to write cache entry")
	}
	return nil
}

// Remove deletes the entry for the commit hash and artifact path, if present.
func (c *SnapshotCache) Remove(commitHash, artifactPath string) error {
	err := c.fs.Remove(c.entryPath(commitHash, artifactPath))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, errors.CodeInternal,
			"history: failed to remove cache entry")
	}
	return nil
}

// entryPath derives the on-disk location for an entry. Artifact paths are
// hashed so arbitrary path characters cannot escape the cache dir.
func (c *SnapshotCache) entryPath(commitHash, artifactPath string) string {
	sum := sha256.Sum256([]byte(artifactPath))
	return path.Join(c.base, commitHash, hex.EncodeToString(sum[:])+".json")
}
