// Package initgraph builds a directed call graph of initializer functions
// from contract ASTs and answers the reachability questions the initializer
// rules ask: which parent initializers a contract reaches, how many times,
// and whether the init chain cycles.
package initgraph

import (
	"sort"
	"strings"

	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

// Kind classifies a function's role in the initializer convention.
type Kind int

const (
	// KindOther is a function with no initializer role.
	KindOther Kind = iota
	// KindConstructor is a constructor.
	KindConstructor
	// KindInitialize is the public entry point named "initialize".
	KindInitialize
	// KindReinitialize is a versioned re-entry point ("reinitializeV2", ...).
	KindReinitialize
	// KindParentInit is an inheritable "__X_init" chain function.
	KindParentInit
	// KindParentInitUnchained is an "__X_init_unchained" leaf function.
	KindParentInitUnchained
)

// String returns the role name.
func (k Kind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindInitialize:
		return "initialize"
	case KindReinitialize:
		return "reinitialize"
	case KindParentInit:
		return "parent-init"
	case KindParentInitUnchained:
		return "parent-init-unchained"
	default:
		return "other"
	}
}

// Classify derives the initializer role from a function's name and AST kind.
func Classify(name, astKind string) Kind {
	switch {
	case astKind == "constructor":
		return KindConstructor
	case name == "initialize":
		return KindInitialize
	case strings.HasPrefix(name, "reinitialize"):
		return KindReinitialize
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "_init_unchained"):
		return KindParentInitUnchained
	case strings.HasPrefix(name, "__") && strings.HasSuffix(name, "_init"):
		return KindParentInit
	default:
		return KindOther
	}
}

// FuncRef identifies a function by declaring contract and name.
type FuncRef struct {
	Contract string
	Name     string
}

// String returns "Contract.name"; constructors render as "Contract.constructor".
func (r FuncRef) String() string {
	name := r.Name
	if name == "" {
		name = "constructor"
	}
	return r.Contract + "." + name
}

// Func is one function node in the graph.
type Func struct {
	Ref  FuncRef
	Kind Kind

	// Decl is the FunctionDefinition node.
	Decl *solast.Node

	// Calls are the resolved outgoing edges, in call order.
	Calls []FuncRef

	// Unresolved holds called names with no known target (library calls,
	// cheatcodes, functions compiled in other units).
	Unresolved []string
}

// Graph is the initializer call graph over a set of source units.
type Graph struct {
	contracts map[string]*solast.Node
	byID      map[int]*solast.Node
	funcs     map[FuncRef]*Func
	order     []FuncRef
}

// Build constructs the graph from source units and resolves call edges.
// Units from the same compilation share AST ids, which lets inheritance
// resolve across files.
func Build(units ...*solast.SourceUnit) *Graph {
	g := &Graph{
		contracts: map[string]*solast.Node{},
		byID:      map[int]*solast.Node{},
		funcs:     map[FuncRef]*Func{},
	}
	for _, unit := range units {
		if unit == nil {
			continue
		}
		g.addUnit(unit)
	}
	g.link()
	return g
}

func (g *Graph) addUnit(unit *solast.SourceUnit) {
	for _, contract := range unit.Contracts() {
		g.contracts[contract.Name] = contract
		g.byID[contract.ID] = contract

		for _, fn := range solast.FunctionsOf(contract) {
			ref := FuncRef{Contract: contract.Name, Name: fn.Name}
			if fn.Kind == "constructor" {
				ref.Name = "constructor"
			}
			if _, ok := g.funcs[ref]; ok {
				continue
			}
			g.funcs[ref] = &Func{
				Ref:  ref,
				Kind: Classify(fn.Name, fn.Kind),
				Decl: fn,
			}
			g.order = append(g.order, ref)
		}
	}
}

// link resolves the called names of every function against the registered
// functions: the caller's own bases first, then a unique global match.
func (g *Graph) link() {
	for _, ref := range g.order {
		fn := g.funcs[ref]
		for _, name := range solast.CalledFunctions(fn.Decl) {
			target, ok := g.resolveCall(ref.Contract, name)
			if !ok {
				fn.Unresolved = append(fn.Unresolved, name)
				continue
			}
			fn.Calls = append(fn.Calls, target)
		}
	}
}

func (g *Graph) resolveCall(fromContract, name string) (FuncRef, bool) {
	// Linearized bases of the caller, most-derived first.
	for _, base := range g.linearizedBases(fromContract) {
		ref := FuncRef{Contract: base, Name: name}
		if _, ok := g.funcs[ref]; ok {
			return ref, true
		}
	}

	// Fall back to a unique match anywhere in the graph.
	var match FuncRef
	count := 0
	for _, ref := range g.order {
		if ref.Name == name {
			match = ref
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return FuncRef{}, false
}

// linearizedBases returns the contract's linearization by name, including
// itself first. Bases are resolved by AST id, falling back to base names for
// contracts compiled in separate units.
func (g *Graph) linearizedBases(contract string) []string {
	c, ok := g.contracts[contract]
	if !ok {
		return nil
	}

	if len(c.LinearizedBaseContracts) > 0 {
		names := make([]string, 0, len(c.LinearizedBaseContracts))
		resolved := true
		for _, id := range c.LinearizedBaseContracts {
			base, ok := g.byID[id]
			if !ok {
				resolved = false
				break
			}
			names = append(names, base.Name)
		}
		if resolved {
			return names
		}
	}

	// Direct bases by name, depth-first. Good enough when ids span
	// compilations; exact C3 order only matters for override resolution.
	names := []string{contract}
	seen := map[string]bool{contract: true}
	var walk func(c *solast.Node)
	walk = func(c *solast.Node) {
		for _, base := range solast.BaseNames(c) {
			if seen[base] {
				continue
			}
			seen[base] = true
			names = append(names, base)
			if bc, ok := g.contracts[base]; ok {
				walk(bc)
			}
		}
	}
	walk(c)
	return names
}

// Contracts returns the registered contract names, sorted.
func (g *Graph) Contracts() []string {
	names := make([]string, 0, len(g.contracts))
	for name := range g.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Contract returns the registered contract definition.
func (g *Graph) Contract(name string) (*solast.Node, bool) {
	c, ok := g.contracts[name]
	return c, ok
}

// Func returns the function node for a ref.
func (g *Graph) Func(ref FuncRef) (*Func, bool) {
	fn, ok := g.funcs[ref]
	return fn, ok
}

// Funcs returns all function nodes in registration order.
func (g *Graph) Funcs() []*Func {
	out := make([]*Func, 0, len(g.order))
	for _, ref := range g.order {
		out = append(out, g.funcs[ref])
	}
	return out
}

// Cycle looks for a cycle among initializer edges using three-colour DFS.
// It returns the cycle path (first node repeated at the end) when one exists.
func (g *Graph) Cycle() ([]FuncRef, bool) {
	// permanent: fully explored, known cycle-free.
	// temporary: on the current recursion stack.
	permanent := map[FuncRef]bool{}
	temporary := map[FuncRef]bool{}

	var stack []FuncRef
	var cycle []FuncRef

	var visit func(ref FuncRef) bool
	visit = func(ref FuncRef) bool {
		if permanent[ref] {
			return false
		}
		if temporary[ref] {
			// Found the back edge; slice the stack from the repeated node.
			for i, r := range stack {
				if r == ref {
					cycle = append(append([]FuncRef{}, stack[i:]...), ref)
					return true
				}
			}
			return true
		}

		temporary[ref] = true
		stack = append(stack, ref)

		for _, callee := range g.funcs[ref].Calls {
			if visit(callee) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, ref)
		permanent[ref] = true
		return false
	}

	// Deterministic start order.
	roots := append([]FuncRef{}, g.order...)
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })

	for _, ref := range roots {
		if !permanent[ref] {
			if visit(ref) {
				return cycle, true
			}
		}
	}
	return nil, false
}

// CallCounts walks the call tree from the given function and counts how many
// times each function is invoked, one count per distinct call path. Back
// edges are not re-entered, so the walk terminates on cyclic graphs.
func (g *Graph) CallCounts(from FuncRef) map[FuncRef]int {
	counts := map[FuncRef]int{}
	onStack := map[FuncRef]bool{}

	var visit func(ref FuncRef)
	visit = func(ref FuncRef) {
		fn, ok := g.funcs[ref]
		if !ok || onStack[ref] {
			return
		}
		onStack[ref] = true
		for _, callee := range fn.Calls {
			counts[callee]++
			visit(callee)
		}
		delete(onStack, ref)
	}

	visit(from)
	return counts
}
