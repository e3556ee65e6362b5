package history

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
)

// RefKind classifies a resolved reference.
type RefKind int

const (
	// RefBranch is a local branch reference (refs/heads/*).
	RefBranch RefKind = iota

	// RefTag is a tag reference (refs/tags/*).
	RefTag

	// RefCommit is a bare commit hash, not a symbolic reference.
	RefCommit
)

// String returns a human-readable name for the kind.
func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefTag:
		return "tag"
	case RefCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// ResolvedRef is the result of resolving a revision specifier.
type ResolvedRef struct {
	// Kind indicates what the specifier named.
	Kind RefKind

	// Hash is the resolved commit hash in full SHA-1 hex form.
	Hash string

	// CanonicalName is the canonical reference name (e.g. "refs/tags/v1.0.0").
	// For bare commit hashes it equals the hash.
	CanonicalName string
}

// Resolve resolves a revision specifier (branch name, tag name, or commit
// SHA, including abbreviated SHAs and forms like "v1.0.0~2") to a commit.
// Annotated tags are peeled to the commit they point at.
func (r *Repo) Resolve(ctx context.Context, rev string) (*ResolvedRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "history: resolve cancelled")
	}
	if rev == "" {
		return nil, errors.New(errors.CodeInvalidInput, "history: empty revision")
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefResolveFailed,
			"history: failed to resolve revision "+rev)
	}

	resolved := &ResolvedRef{
		Kind:          RefCommit,
		Hash:          hash.String(),
		CanonicalName: hash.String(),
	}

	// Prefer the symbolic name when the specifier was one.
	if ref, refErr := r.repo.Reference(plumbing.NewTagReferenceName(rev), true); refErr == nil {
		resolved.Kind = RefTag
		resolved.CanonicalName = ref.Name().String()
	} else if ref, refErr := r.repo.Reference(plumbing.NewBranchReferenceName(rev), true); refErr == nil {
		resolved.Kind = RefBranch
		resolved.CanonicalName = ref.Name().String()
	}

	return resolved, nil
}

// Tags lists tag names, optionally filtered by prefix. Annotated and
// lightweight tags are both included. Results are sorted alphabetically.
func (r *Repo) Tags(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "history: tag listing cancelled")
	}

	iter, err := r.repo.Tags()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefResolveFailed, "history: failed to list tags")
	}

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if prefix == "" || strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefResolveFailed, "history: failed to iterate tags")
	}

	sort.Strings(names)
	return names, nil
}

// FileAt reads a single file from the commit tree of the given revision.
// The worktree is never consulted.
func (r *Repo) FileAt(ctx context.Context, rev, path string) ([]byte, error) {
	commit, err := r.commitAt(ctx, rev)
	if err != nil {
		return nil, err
	}

	file, err := commit.File(path)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeArtifactNotFound,
			"history: file not found in commit tree",
			map[string]interface{}{"revision": rev, "path": path})
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "history: failed to open blob "+path)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "history: failed to read blob "+path)
	}
	return data, nil
}

// SnapshotDir copies the subtree rooted at dir from the commit tree of the
// given revision into a fresh in-memory filesystem, preserving relative
// paths. The artifact loader can then read the old build output through the
// same interface it uses for a live directory. Passing "." or "" snapshots
// the whole tree.
//
//nolint:ireturn // callers consume the fs.Filesystem interface.
func (r *Repo) SnapshotDir(ctx context.Context, rev, dir string) (fs.Filesystem, error) {
	commit, err := r.commitAt(ctx, rev)
	if err != nil {
		return nil, err
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "history: failed to read commit tree")
	}

	dir = strings.Trim(dir, "/")
	if dir != "" && dir != "." {
		subtree, treeErr := tree.Tree(dir)
		if treeErr != nil {
			return nil, errors.WrapWithContext(treeErr, errors.CodeArtifactNotFound,
				"history: directory not found in commit tree",
				map[string]interface{}{"revision": rev, "dir": dir})
		}
		tree = subtree
	}

	snapshot := fs.NewInMemoryFS()
	err = tree.Files().ForEach(func(f *object.File) error {
		contents, readErr := f.Contents()
		if readErr != nil {
			return readErr
		}
		return snapshot.WriteFile(f.Name, []byte(contents), 0o644)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "history: failed to materialize snapshot")
	}

	return snapshot, nil
}

// commitAt resolves a revision and loads its commit object.
func (r *Repo) commitAt(ctx context.Context, rev string) (*object.Commit, error) {
	resolved, err := r.Resolve(ctx, rev)
	if err != nil {
		return nil, err
	}

	commit, err := r.repo.CommitObject(plumbing.NewHash(resolved.Hash))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefResolveFailed,
			"history: failed to load commit "+resolved.Hash)
	}
	return commit, nil
}
