package solast

// VisitFunc receives each node during a walk. Returning false stops descent
// into the node's children (siblings are still visited).
type VisitFunc func(n *Node) bool

// Walk traverses the AST rooted at n in depth-first pre-order, visiting every
// structural child slot. Nil children are skipped.
func Walk(n *Node, visit VisitFunc) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}

	for _, child := range n.children() {
		Walk(child, visit)
	}
}

// children collects the node's non-nil structural children in source order.
func (n *Node) children() []*Node {
	out := make([]*Node, 0, len(n.Nodes)+len(n.Statements)+len(n.Arguments)+4)

	out = append(out, n.Nodes...)
	out = append(out, n.BaseContracts...)
	out = append(out, n.Modifiers...)

	for _, c := range []*Node{n.ModifierName, n.BaseName, n.Body, n.Expression, n.TypeName} {
		if c != nil {
			out = append(out, c)
		}
	}

	out = append(out, n.Statements...)
	out = append(out, n.Arguments...)

	// Filter nils that can appear inside slices from partial documents.
	filtered := out[:0]
	for _, c := range out {
		if c != nil {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// FunctionsOf returns the function definitions of a contract node, including
// the constructor.
func FunctionsOf(contract *Node) []*Node {
	funcs := make([]*Node, 0, len(contract.Nodes))
	for _, n := range contract.Nodes {
		if n.NodeType == NodeFunctionDefinition {
			funcs = append(funcs, n)
		}
	}
	return funcs
}

// ConstructorOf returns a contract's constructor definition, if declared.
func ConstructorOf(contract *Node) (*Node, bool) {
	for _, fn := range FunctionsOf(contract) {
		if fn.Kind == "constructor" {
			return fn, true
		}
	}
	return nil, false
}

// StructsOf returns the struct definitions declared directly in a contract.
func StructsOf(contract *Node) []*Node {
	structs := make([]*Node, 0, 2)
	for _, n := range contract.Nodes {
		if n.NodeType == NodeStructDefinition {
			structs = append(structs, n)
		}
	}
	return structs
}

// StateVariablesOf returns the state variable declarations of a contract.
// Constants and immutables are included; callers filter by Mutability when
// only storage-occupying variables matter.
func StateVariablesOf(contract *Node) []*Node {
	vars := make([]*Node, 0, len(contract.Nodes))
	for _, n := range contract.Nodes {
		if n.NodeType == NodeVariableDeclaration && n.StateVariable {
			vars = append(vars, n)
		}
	}
	return vars
}

// HasModifier reports whether a function definition carries a modifier
// invocation with the given name.
func HasModifier(fn *Node, name string) bool {
	for _, m := range fn.Modifiers {
		if m.NodeType != NodeModifierInvocation || m.ModifierName == nil {
			continue
		}
		if m.ModifierName.Name == name {
			return true
		}
	}
	return false
}

// CalledFunctions returns the names of functions invoked (directly or via
// member access, e.g. super.__X_init) anywhere inside a function body.
func CalledFunctions(fn *Node) []string {
	if fn.Body == nil {
		return nil
	}

	var names []string
	Walk(fn.Body, func(n *Node) bool {
		if n.NodeType != NodeFunctionCall || n.Expression == nil {
			return true
		}
		switch n.Expression.NodeType {
		case NodeIdentifier:
			names = append(names, n.Expression.Name)
		case NodeMemberAccess:
			names = append(names, n.Expression.MemberName)
		}
		return true
	})
	return names
}

// BaseNames returns the declared base contract names of a contract, in
// inheritance-list order.
func BaseNames(contract *Node) []string {
	names := make([]string, 0, len(contract.BaseContracts))
	for _, base := range contract.BaseContracts {
		if base.BaseName != nil {
			names = append(names, base.BaseName.Name)
		}
	}
	return names
}
