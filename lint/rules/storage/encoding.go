package storage

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// NoUnknownEncodingRule flags storage items whose type uses an encoding solc
// is not documented to emit, or whose type ref does not resolve at all. The
// comparator cannot reason about such types, so they fail closed.
type NoUnknownEncodingRule struct{}

// NewNoUnknownEncodingRule creates the rule.
func NewNoUnknownEncodingRule() *NoUnknownEncodingRule {
	return &NoUnknownEncodingRule{}
}

// Name returns the unique identifier for this rule.
func (r *NoUnknownEncodingRule) Name() string {
	return "no-unknown-encoding"
}

// Description returns a human-readable description of what this rule checks.
func (r *NoUnknownEncodingRule) Description() string {
	return "Storage item types must use a known solc encoding and resolve in the type registry"
}

// Check walks every storage item of every contract in the current set.
func (r *NoUnknownEncodingRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		return contractCtx.WalkItems(func(itemCtx *lint.Context) error {
			item := *itemCtx.Item
			l := itemCtx.Artifact.Layout

			t, ok := l.Type(item.Type)
			if !ok {
				issues = append(issues, lint.NewIssue(
					r.Name(),
					lint.SeverityError,
					fmt.Sprintf("variable %q references unresolved type %s", item.Label, item.Type),
					lint.ItemLocation(itemCtx.Artifact.FQN(), item),
				))
				return nil
			}

			if !t.Encoding.Known() {
				issues = append(issues, lint.NewIssue(
					r.Name(),
					lint.SeverityError,
					fmt.Sprintf("variable %q uses unknown storage encoding %q", item.Label, t.Encoding),
					lint.ItemLocation(itemCtx.Artifact.FQN(), item),
				).WithContext("encoding", string(t.Encoding)))
			}
			return nil
		})
	})

	return issues
}
