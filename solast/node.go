// Package solast provides a minimal typed model over solc's compact AST JSON.
// It captures only the node kinds the checker reasons about (contracts,
// functions, modifiers, state variables, struct definitions and natspec
// annotations); all other nodes decode generically and are traversed without
// interpretation.
package solast

import (
	"bytes"
	"encoding/json"

	"github.com/CoveMB/openzeppelin-upgrades/errors"
)

// Node kinds the checker interprets. Values match solc's nodeType strings.
const (
	NodeSourceUnit          = "SourceUnit"
	NodeContractDefinition  = "ContractDefinition"
	NodeFunctionDefinition  = "FunctionDefinition"
	NodeModifierDefinition  = "ModifierDefinition"
	NodeModifierInvocation  = "ModifierInvocation"
	NodeInheritance         = "InheritanceSpecifier"
	NodeStructDefinition    = "StructDefinition"
	NodeVariableDeclaration = "VariableDeclaration"
	NodeFunctionCall        = "FunctionCall"
	NodeIdentifier          = "Identifier"
	NodeMemberAccess        = "MemberAccess"
	NodeExpressionStatement = "ExpressionStatement"
	NodeBlock               = "Block"
)

// Node is a single AST node. One struct covers every node kind; fields not
// present for a kind simply stay zero. This mirrors solc's compact encoding,
// where nodes are distinguished only by their nodeType string.
type Node struct {
	ID       int    `json:"id"`
	NodeType string `json:"nodeType"`
	Name     string `json:"name"`
	Src      string `json:"src"`

	// SourceUnit fields.
	AbsolutePath string  `json:"absolutePath,omitempty"`
	Nodes        []*Node `json:"nodes,omitempty"`

	// ContractDefinition fields.
	ContractKind            string  `json:"contractKind,omitempty"`
	Abstract                bool    `json:"abstract,omitempty"`
	BaseContracts           []*Node `json:"baseContracts,omitempty"`
	LinearizedBaseContracts []int   `json:"linearizedBaseContracts,omitempty"`
	CanonicalName           string  `json:"canonicalName,omitempty"`

	// FunctionDefinition / ModifierDefinition fields.
	Kind      string  `json:"kind,omitempty"` // "function", "constructor", "receive", "fallback"
	Body      *Node   `json:"body,omitempty"`
	Modifiers []*Node `json:"modifiers,omitempty"`

	// ModifierInvocation / InheritanceSpecifier fields.
	ModifierName *Node `json:"modifierName,omitempty"`
	BaseName     *Node `json:"baseName,omitempty"`

	// Statement / expression fields.
	Statements []*Node `json:"statements,omitempty"`
	Expression *Node   `json:"expression,omitempty"`
	Arguments  []*Node `json:"arguments,omitempty"`

	// Identifier / MemberAccess fields.
	MemberName            string `json:"memberName,omitempty"`
	ReferencedDeclaration int    `json:"referencedDeclaration,omitempty"`

	// VariableDeclaration fields.
	Mutability    string `json:"mutability,omitempty"` // "mutable", "constant", "immutable"
	StateVariable bool   `json:"stateVariable,omitempty"`
	TypeName      *Node  `json:"typeName,omitempty"`

	// Documentation is either a plain string (legacy) or a
	// StructuredDocumentation node with a text field.
	Documentation Doc `json:"documentation,omitempty"`
}

// Doc normalizes solc's two documentation encodings to a plain string.
type Doc struct {
	Text string
}

// UnmarshalJSON accepts both `"..."` and `{"text": "..."}` forms.
func (d *Doc) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		return json.Unmarshal(data, &d.Text)
	}

	var structured struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &structured); err != nil {
		return err
	}
	d.Text = structured.Text
	return nil
}

// MarshalJSON re-emits the normalized string form.
func (d Doc) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Text)
}

// SourceUnit is the root of one compiled source file's AST.
type SourceUnit struct {
	*Node
}

// Parse decodes a compact solc AST JSON document.
func Parse(data []byte) (*SourceUnit, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, errors.CodeASTDecodeFailed, "invalid AST JSON")
	}
	if root.NodeType != NodeSourceUnit {
		return nil, errors.Newf(errors.CodeASTDecodeFailed,
			"expected SourceUnit root, got %q", root.NodeType)
	}
	return &SourceUnit{Node: &root}, nil
}

// ParseString decodes a compact solc AST JSON document from a string.
func ParseString(content string) (*SourceUnit, error) {
	return Parse([]byte(content))
}

// Contracts returns the contract definitions declared in the source unit.
func (su *SourceUnit) Contracts() []*Node {
	contracts := make([]*Node, 0, len(su.Nodes))
	for _, n := range su.Nodes {
		if n.NodeType == NodeContractDefinition {
			contracts = append(contracts, n)
		}
	}
	return contracts
}

// Contract returns the contract definition with the given name, if present.
func (su *SourceUnit) Contract(name string) (*Node, bool) {
	for _, n := range su.Contracts() {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}
