package initgraph

import (
	"strings"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
	"github.com/CoveMB/openzeppelin-upgrades/solast"
)

// Modifier names of the initializer convention.
const (
	ModifierInitializer      = "initializer"
	ModifierReinitializer    = "reinitializer"
	ModifierOnlyInitializing = "onlyInitializing"

	disableInitializersCall = "_disableInitializers"
)

// Report is the per-contract initializer analysis the rules consume.
type Report struct {
	// Contract is the analyzed contract definition.
	Contract *solast.Node

	// Initializer is the contract's own entry point ("initialize" or a
	// reinitializer), nil when the contract declares none.
	Initializer *Func

	// InitializerModifier is the guard modifier found on the entry point
	// ("initializer" or "reinitializer"), empty when unguarded.
	InitializerModifier string

	// ParentInits lists the "__X_init" chain functions exposed by linearized
	// bases, base-most last. These are the calls the entry point owes.
	ParentInits []FuncRef

	// Missing are owed parent inits never reached from the entry point.
	Missing []FuncRef

	// Duplicated are parent-init functions (chained or unchained) reached
	// more than once, which double-initializes the base.
	Duplicated []FuncRef

	// UnguardedInits are "__X_init"/"__X_init_unchained" functions declared
	// by this contract without the onlyInitializing modifier.
	UnguardedInits []FuncRef

	// ConstructorCalls are calls made by the contract's constructor other
	// than _disableInitializers.
	ConstructorCalls []string

	// ConstructorStatements are constructor-body statements that are not
	// plain function calls (assignments, declarations, loops), named by the
	// node type of the offending construct.
	ConstructorStatements []string

	// HasConstructor reports whether the contract declares a constructor.
	HasConstructor bool
}

// Upgradeable reports whether the contract takes part in the initializer
// convention at all: it declares an initializer entry point or an init-chain
// function, or inherits a base that follows the naming convention.
func (r *Report) Upgradeable() bool {
	return r.Initializer != nil ||
		len(r.ParentInits) > 0 ||
		len(funcsOfKinds(r.Contract, KindParentInit, KindParentInitUnchained)) > 0
}

// Analyze produces the initializer report for the named contract.
func (g *Graph) Analyze(contract string) (*Report, error) {
	c, ok := g.contracts[contract]
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown contract %q", contract)
	}

	r := &Report{Contract: c}

	r.Initializer, r.InitializerModifier = g.entryPoint(contract)
	r.ParentInits = g.parentInits(contract)
	r.UnguardedInits = g.unguardedInits(contract)
	g.checkConstructor(contract, r)

	if r.Initializer != nil {
		counts := g.CallCounts(r.Initializer.Ref)
		for _, parent := range r.ParentInits {
			switch counts[parent] {
			case 0:
				r.Missing = append(r.Missing, parent)
			case 1:
				// Exactly once, as the convention demands.
			default:
				r.Duplicated = append(r.Duplicated, parent)
			}
		}
		// A base reached twice through different chain functions still
		// double-initializes: flag unchained leaves too.
		for ref, n := range counts {
			if n <= 1 {
				continue
			}
			if fn, ok := g.funcs[ref]; ok && fn.Kind == KindParentInitUnchained {
				r.Duplicated = appendRefOnce(r.Duplicated, ref)
			}
		}
	} else if len(r.ParentInits) > 0 {
		// No entry point at all: every owed parent init is missing. Abstract
		// bases are exempt, they leave initialization to the concrete leaf.
		if !c.Abstract {
			r.Missing = append(r.Missing, r.ParentInits...)
		}
	}

	return r, nil
}

// entryPoint finds the contract's own initializer entry point and its guard
// modifier. Reinitializers count; a plain initialize without a guard is
// returned with an empty modifier.
func (g *Graph) entryPoint(contract string) (*Func, string) {
	for _, ref := range g.order {
		if ref.Contract != contract {
			continue
		}
		fn := g.funcs[ref]
		if fn.Kind != KindInitialize && fn.Kind != KindReinitialize {
			continue
		}
		return fn, guardModifier(fn.Decl)
	}
	return nil, ""
}

func guardModifier(decl *solast.Node) string {
	if solast.HasModifier(decl, ModifierInitializer) {
		return ModifierInitializer
	}
	for _, m := range decl.Modifiers {
		if m.ModifierName != nil && strings.HasPrefix(m.ModifierName.Name, ModifierReinitializer) {
			return ModifierReinitializer
		}
	}
	return ""
}

// parentInits collects the "__X_init" functions of the contract's bases,
// base-most last, skipping the contract's own.
func (g *Graph) parentInits(contract string) []FuncRef {
	var owed []FuncRef
	for _, base := range g.linearizedBases(contract) {
		if base == contract {
			continue
		}
		for _, ref := range g.order {
			if ref.Contract == base && g.funcs[ref].Kind == KindParentInit {
				owed = append(owed, ref)
			}
		}
	}
	return owed
}

func (g *Graph) unguardedInits(contract string) []FuncRef {
	var unguarded []FuncRef
	for _, ref := range g.order {
		if ref.Contract != contract {
			continue
		}
		fn := g.funcs[ref]
		if fn.Kind != KindParentInit && fn.Kind != KindParentInitUnchained {
			continue
		}
		if !solast.HasModifier(fn.Decl, ModifierOnlyInitializing) {
			unguarded = append(unguarded, ref)
		}
	}
	return unguarded
}

func (g *Graph) checkConstructor(contract string, r *Report) {
	ref := FuncRef{Contract: contract, Name: "constructor"}
	fn, ok := g.funcs[ref]
	if !ok {
		return
	}
	r.HasConstructor = true
	if fn.Decl.Body == nil {
		return
	}

	// The only statement allowed in an upgradeable contract's constructor
	// is a bare _disableInitializers() call. Anything else, a different
	// call or a non-call statement such as an assignment, runs in the
	// implementation and is invisible behind the proxy.
	for _, stmt := range fn.Decl.Body.Statements {
		if name, isCall := bareCallName(stmt); isCall {
			if name != disableInitializersCall {
				r.ConstructorCalls = append(r.ConstructorCalls, name)
			}
			continue
		}
		r.ConstructorStatements = append(r.ConstructorStatements, statementKind(stmt))
	}
}

// bareCallName returns the callee when the statement is a plain function
// call, e.g. `_disableInitializers();`.
func bareCallName(stmt *solast.Node) (string, bool) {
	if stmt.NodeType != solast.NodeExpressionStatement || stmt.Expression == nil {
		return "", false
	}
	call := stmt.Expression
	if call.NodeType != solast.NodeFunctionCall || call.Expression == nil {
		return "", false
	}
	switch call.Expression.NodeType {
	case solast.NodeIdentifier:
		return call.Expression.Name, true
	case solast.NodeMemberAccess:
		return call.Expression.MemberName, true
	}
	return "", false
}

// statementKind names the offending construct: the wrapped expression's
// node type for expression statements (e.g. "Assignment"), the statement's
// own node type otherwise.
func statementKind(stmt *solast.Node) string {
	if stmt.NodeType == solast.NodeExpressionStatement && stmt.Expression != nil {
		return stmt.Expression.NodeType
	}
	return stmt.NodeType
}

// funcsOfKinds returns the contract's own functions matching the kinds.
func funcsOfKinds(contract *solast.Node, kinds ...Kind) []*solast.Node {
	var out []*solast.Node
	for _, fn := range solast.FunctionsOf(contract) {
		k := Classify(fn.Name, fn.Kind)
		for _, want := range kinds {
			if k == want {
				out = append(out, fn)
				break
			}
		}
	}
	return out
}

func appendRefOnce(refs []FuncRef, ref FuncRef) []FuncRef {
	for _, r := range refs {
		if r == ref {
			return refs
		}
	}
	return append(refs, ref)
}
