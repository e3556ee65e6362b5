// Package artifact reads contract build artifacts from Foundry and Hardhat
// output trees and extracts storage layouts and ASTs from them. All access
// goes through the filesystem abstraction, so the same loader serves OS
// directories, in-memory test trees, and git-ref snapshots.
package artifact

import (
	"sort"
	"strings"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/fs"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

// Kind identifies the build tool that produced an artifact tree.
type Kind int

const (
	// KindUnknown means the tree shape could not be recognized.
	KindUnknown Kind = iota
	// KindFoundry is a forge output tree (out/<File>.sol/<Contract>.json).
	KindFoundry
	// KindHardhat is a hardhat artifact tree (artifacts/build-info/*.json).
	KindHardhat
)

// String returns the tool name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFoundry:
		return "foundry"
	case KindHardhat:
		return "hardhat"
	default:
		return "unknown"
	}
}

// Artifact is one contract extracted from a build tree.
type Artifact struct {
	// Name is the bare contract name, e.g. "MyToken".
	Name string

	// SourcePath is the source file that declares the contract,
	// e.g. "contracts/MyToken.sol".
	SourcePath string

	// Layout is the extracted storage layout, enriched with ERC-7201
	// namespaces and rename annotations when the AST is available.
	Layout *layout.Layout

	// AST is the source unit AST, when the artifact carries one.
	AST *solast.SourceUnit
}

// FQN returns the fully qualified contract name, e.g.
// "contracts/MyToken.sol:MyToken".
func (a *Artifact) FQN() string {
	if a.SourcePath == "" {
		return a.Name
	}
	return a.SourcePath + ":" + a.Name
}

// Skip records a contract that was found but not extracted, with the reason.
// Missing storage layouts are skips, not errors: layout output is an opt-in
// compiler setting.
type Skip struct {
	Name   string
	Path   string
	Reason string
}

// Set is the collection of artifacts extracted from one build tree.
type Set struct {
	Kind      Kind
	Artifacts []*Artifact
	Skipped   []Skip
}

// Get returns the artifact matching the given name. Both bare names and
// fully qualified names are accepted; bare-name lookups fail on ambiguity.
func (s *Set) Get(name string) (*Artifact, error) {
	var match *Artifact
	for _, a := range s.Artifacts {
		if a.FQN() == name {
			return a, nil
		}
		if a.Name == name {
			if match != nil {
				return nil, errors.Newf(errors.CodeDuplicateContract,
					"contract name %q is ambiguous, use the fully qualified name", name)
			}
			match = a
		}
	}
	if match == nil {
		return nil, errors.Newf(errors.CodeArtifactNotFound, "no artifact for contract %q", name)
	}
	return match, nil
}

// Names returns the fully qualified names of all artifacts, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Artifacts))
	for _, a := range s.Artifacts {
		names = append(names, a.FQN())
	}
	sort.Strings(names)
	return names
}

// sortArtifacts restores deterministic FQN ordering after loading.
func (s *Set) sortArtifacts() {
	sort.Slice(s.Artifacts, func(i, j int) bool {
		return s.Artifacts[i].FQN() < s.Artifacts[j].FQN()
	})
}

// Load reads a build tree, auto-detecting the producing tool.
func Load(filesystem fs.Filesystem, dir string) (*Set, error) {
	kind, err := Detect(filesystem, dir)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFoundry:
		return LoadFoundry(filesystem, dir)
	case KindHardhat:
		return LoadHardhat(filesystem, dir)
	default:
		return nil, errors.Newf(errors.CodeInvalidArtifact,
			"directory %q is neither a foundry out tree nor a hardhat artifact tree", dir)
	}
}

// Detect classifies a build tree by its shape: Hardhat trees carry a
// build-info directory, Foundry trees contain <File>.sol directories.
func Detect(filesystem fs.Filesystem, dir string) (Kind, error) {
	hasBuildInfo, err := filesystem.Exists(join(dir, "build-info"))
	if err != nil {
		return KindUnknown, errors.Wrap(err, errors.CodeInvalidArtifact, "failed to inspect artifact directory")
	}
	if hasBuildInfo {
		return KindHardhat, nil
	}

	entries, err := filesystem.ReadDir(dir)
	if err != nil {
		return KindUnknown, errors.WrapWithContext(err, errors.CodeInvalidArtifact,
			"failed to read artifact directory", map[string]interface{}{"dir": dir})
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), ".sol") {
			return KindFoundry, nil
		}
	}

	return KindUnknown, nil
}

// join concatenates filesystem paths with forward slashes; billy filesystems
// are slash-separated on every platform.
func join(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" && p != "." {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "/")
}
