package lint

import (
	"github.com/CoveMB/openzeppelin-upgrades/artifact"
	"github.com/CoveMB/openzeppelin-upgrades/compare"
	"github.com/CoveMB/openzeppelin-upgrades/initgraph"
	"github.com/CoveMB/openzeppelin-upgrades/layout"
	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

// Context provides rules with contextual information about the current
// position in the check run. It supports hierarchical navigation from the
// run level through contracts down to individual storage items, and caches
// derived data so rules do not recompute it.
type Context struct {
	// Reference is the artifact set of the version being upgraded from.
	// Nil for single-version runs; cross-version rules no-op without it.
	Reference *artifact.Set

	// Current is the artifact set under check.
	Current *artifact.Set

	// Graph is the initializer call graph over Current's ASTs.
	Graph *initgraph.Graph

	// GapMatcher classifies reserved gap arrays for the current run.
	GapMatcher *layout.GapMatcher

	// Artifact is the contract being examined (nil for run-level context).
	Artifact *artifact.Artifact

	// Previous is the reference version of Artifact, nil when the contract
	// is new in this version.
	Previous *artifact.Artifact

	// Delta is the layout diff between Previous and Artifact, nil when
	// Previous is nil.
	Delta *compare.Delta

	// Item is the current storage item (nil above item level).
	Item *layout.Item

	// Parent provides access to the parent context in the hierarchy.
	Parent *Context

	// cache stores rule-specific data to avoid recomputation.
	// Keys should be prefixed with the rule name to avoid conflicts.
	cache map[string]interface{}
}

// NewContext creates a new root Context for a check run. The initializer
// graph is built from the ASTs of the current set.
func NewContext(reference, current *artifact.Set) *Context {
	units := make([]*solast.SourceUnit, 0, len(current.Artifacts))
	seen := map[*solast.SourceUnit]bool{}
	for _, art := range current.Artifacts {
		if art.AST == nil || seen[art.AST] {
			continue
		}
		seen[art.AST] = true
		units = append(units, art.AST)
	}

	return &Context{
		Reference:  reference,
		Current:    current,
		Graph:      initgraph.Build(units...),
		GapMatcher: layout.MustGapMatcher(""),
		cache:      make(map[string]interface{}),
	}
}

// WithGapMatcher replaces the gap matcher, for configured gap label patterns.
func (ctx *Context) WithGapMatcher(m *layout.GapMatcher) *Context {
	ctx.GapMatcher = m
	return ctx
}

// NewContractContext creates a Context scoped to one contract. The reference
// counterpart and its layout delta are resolved here, once per contract.
func NewContractContext(parent *Context, art *artifact.Artifact) *Context {
	ctx := &Context{
		Reference:  parent.Reference,
		Current:    parent.Current,
		Graph:      parent.Graph,
		GapMatcher: parent.GapMatcher,
		Artifact:   art,
		Parent:     parent,
		cache:      parent.cache,
	}

	if parent.Reference != nil {
		if prev, err := parent.Reference.Get(art.FQN()); err == nil {
			ctx.Previous = prev
			ctx.Delta = compare.Compare(prev.Layout, art.Layout)
		}
	}

	return ctx
}

// NewItemContext creates a Context scoped to one storage item.
func NewItemContext(parent *Context, item layout.Item) *Context {
	return &Context{
		Reference:  parent.Reference,
		Current:    parent.Current,
		Graph:      parent.Graph,
		GapMatcher: parent.GapMatcher,
		Artifact:   parent.Artifact,
		Previous:   parent.Previous,
		Delta:      parent.Delta,
		Item:       &item,
		Parent:     parent,
		cache:      parent.cache,
	}
}

// IsRunLevel returns true if this context is at the run level.
func (ctx *Context) IsRunLevel() bool {
	return ctx.Artifact == nil && ctx.Item == nil
}

// IsContractLevel returns true if this context is scoped to a contract but
// not an item.
func (ctx *Context) IsContractLevel() bool {
	return ctx.Artifact != nil && ctx.Item == nil
}

// IsItemLevel returns true if this context is scoped to a storage item.
func (ctx *Context) IsItemLevel() bool {
	return ctx.Item != nil
}

// GetCache retrieves a cached value by key. Returns nil if absent.
func (ctx *Context) GetCache(key string) interface{} {
	return ctx.cache[key]
}

// SetCache stores a value in the shared run cache.
func (ctx *Context) SetCache(key string, value interface{}) {
	ctx.cache[key] = value
}

// Root returns the run-level context by traversing up the parent chain.
func (ctx *Context) Root() *Context {
	current := ctx
	for current.Parent != nil {
		current = current.Parent
	}
	return current
}

// InitReport returns the initializer analysis for the current contract,
// computed once per run and cached.
func (ctx *Context) InitReport() (*initgraph.Report, error) {
	if ctx.Artifact == nil {
		return nil, nil
	}

	key := "initgraph:" + ctx.Artifact.FQN()
	if cached := ctx.GetCache(key); cached != nil {
		return cached.(*initgraph.Report), nil
	}

	report, err := ctx.Graph.Analyze(ctx.Artifact.Name)
	if err != nil {
		return nil, err
	}
	ctx.SetCache(key, report)
	return report, nil
}

// WalkContracts executes the provided function for each contract in the
// current set. The function receives a new contract context for each.
// Walking stops if the function returns an error.
func (ctx *Context) WalkContracts(fn func(contractCtx *Context) error) error {
	if ctx.Current == nil {
		return nil
	}

	for _, art := range ctx.Current.Artifacts {
		if err := fn(NewContractContext(ctx, art)); err != nil {
			return err
		}
	}
	return nil
}

// WalkItems executes the provided function for each storage item of the
// current contract. Walking stops if the function returns an error.
func (ctx *Context) WalkItems(fn func(itemCtx *Context) error) error {
	if ctx.Artifact == nil || ctx.Artifact.Layout == nil {
		return nil
	}

	for _, item := range ctx.Artifact.Layout.Items() {
		if err := fn(NewItemContext(ctx, item)); err != nil {
			return err
		}
	}
	return nil
}

// WalkAll executes the provided function for all contexts in the run: the
// run level, each contract, and each item. Walking stops on error.
func (ctx *Context) WalkAll(fn func(walkCtx *Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}

	return ctx.WalkContracts(func(contractCtx *Context) error {
		if err := fn(contractCtx); err != nil {
			return err
		}
		return contractCtx.WalkItems(fn)
	})
}
