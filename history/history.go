// Package history provides read access to past versions of a contract
// project through its git repository. It opens the repository over the
// filesystem abstraction, resolves revisions (branches, tags, commit SHAs),
// and reads build artifacts straight from commit trees without touching the
// worktree, so a check against an old release never dirties the checkout.
package history

import (
	"context"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
)

const (
	// DefaultStorerCacheSize is the default size for the LRU object cache.
	DefaultStorerCacheSize = 1000

	// DefaultWorkdir is the default repository root within the filesystem.
	DefaultWorkdir = "."

	// gitDir is the repository metadata directory inside the workdir.
	gitDir = ".git"
)

// Options configures how a repository is opened.
type Options struct {
	// FS is the REQUIRED filesystem holding the repository. All repository
	// state is read through it, so in-memory repositories work in tests.
	FS fs.Filesystem

	// Workdir is the path within FS of the repository root (the directory
	// containing .git). Defaults to ".".
	Workdir string

	// StorerCacheSize sets the number of entries in the git object cache.
	// Defaults to DefaultStorerCacheSize.
	StorerCacheSize int
}

// Validate checks that the Options are properly configured.
func (o *Options) Validate() error {
	if o.FS == nil {
		return errors.New(errors.CodeInvalidInput, "history: FS is required")
	}
	if o.StorerCacheSize < 0 {
		return errors.New(errors.CodeInvalidInput, "history: StorerCacheSize cannot be negative")
	}
	return nil
}

// applyDefaults sets default values for any unset fields.
func (o *Options) applyDefaults() {
	if o.Workdir == "" {
		o.Workdir = DefaultWorkdir
	}
	if o.StorerCacheSize == 0 {
		o.StorerCacheSize = DefaultStorerCacheSize
	}
}

// Repo wraps an opened git repository. All operations are read-only.
type Repo struct {
	repo *gogit.Repository
}

// Open opens an existing repository at opts.Workdir within opts.FS.
func Open(ctx context.Context, opts *Options) (*Repo, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "history: open cancelled")
	}

	billyFS, ok := opts.FS.(*fs.BillyFS)
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"history: filesystem must be billy-backed, got %T", opts.FS)
	}

	worktree, err := billyFS.Raw().Chroot(opts.Workdir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput,
			"history: failed to scope filesystem to workdir "+opts.Workdir)
	}

	dotGit, err := worktree.Chroot(gitDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput,
			"history: failed to access repository metadata")
	}

	storer := filesystem.NewStorage(dotGit, cache.NewObjectLRU(cache.FileSize(opts.StorerCacheSize)))

	repo, err := gogit.Open(storer, worktree)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefResolveFailed,
			"history: failed to open repository at "+opts.Workdir)
	}

	return &Repo{repo: repo}, nil
}

// NewFromRepository wraps an already opened go-git repository. Tests use this
// with in-memory repositories built directly against go-git.
func NewFromRepository(repo *gogit.Repository) *Repo {
	return &Repo{repo: repo}
}
