package storage

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/compare"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// NamespaceImmutableIDRule flags ERC-7201 namespaces that disappear between
// versions. The namespace id feeds the slot derivation, so removing or
// renaming an id strands every value stored under it.
type NamespaceImmutableIDRule struct{}

// NewNamespaceImmutableIDRule creates the rule.
func NewNamespaceImmutableIDRule() *NamespaceImmutableIDRule {
	return &NamespaceImmutableIDRule{}
}

// Name returns the unique identifier for this rule.
func (r *NamespaceImmutableIDRule) Name() string {
	return "namespace-immutable-id"
}

// Description returns a human-readable description of what this rule checks.
func (r *NamespaceImmutableIDRule) Description() string {
	return "ERC-7201 namespace ids must not change or disappear between versions"
}

// Check reports every namespace id present in the reference but absent now.
func (r *NamespaceImmutableIDRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		if contractCtx.Delta == nil {
			return nil
		}

		for _, ns := range contractCtx.Delta.Removed {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("namespace %q was removed; its base slot %s is no longer reachable", ns.ID, ns.BaseSlot),
				lint.MemberLocation(contractCtx.Artifact.FQN(), ns.ID),
			).WithContext("base_slot", ns.BaseSlot.String()))
		}
		return nil
	})

	return issues
}

// NamespaceAppendOnlyRule applies the linear append-only discipline inside
// each ERC-7201 namespace: struct members may be appended, never deleted,
// inserted or incompatibly retyped.
type NamespaceAppendOnlyRule struct{}

// NewNamespaceAppendOnlyRule creates the rule.
func NewNamespaceAppendOnlyRule() *NamespaceAppendOnlyRule {
	return &NamespaceAppendOnlyRule{}
}

// Name returns the unique identifier for this rule.
func (r *NamespaceAppendOnlyRule) Name() string {
	return "namespace-append-only"
}

// Description returns a human-readable description of what this rule checks.
func (r *NamespaceAppendOnlyRule) Description() string {
	return "ERC-7201 namespaced structs may only grow by appending members"
}

// Check examines the member-level diff of every matched namespace.
func (r *NamespaceAppendOnlyRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		if contractCtx.Delta == nil {
			return nil
		}

		for _, ns := range contractCtx.Delta.Namespaces {
			issues = append(issues, r.checkNamespace(contractCtx, ns)...)
		}
		return nil
	})

	return issues
}

func (r *NamespaceAppendOnlyRule) checkNamespace(ctx *lint.Context, ns compare.NamespaceDelta) []lint.Issue {
	var issues []lint.Issue
	fqn := ctx.Artifact.FQN()

	member := func(label string) *lint.Location {
		return lint.MemberLocation(fqn, ns.ID+"."+label)
	}

	for _, item := range ns.Deleted {
		issues = append(issues, lint.NewIssue(
			r.Name(),
			lint.SeverityError,
			fmt.Sprintf("member %q was deleted from namespace %q", item.Label, ns.ID),
			member(item.Label),
		))
	}

	for _, item := range ns.Inserted {
		issues = append(issues, lint.NewIssue(
			r.Name(),
			lint.SeverityError,
			fmt.Sprintf("member %q was inserted into namespace %q before existing members", item.Label, ns.ID),
			member(item.Label),
		))
	}

	for _, pair := range ns.Pairs {
		if pair.TypeChanged {
			severity := lint.SeverityError
			message := fmt.Sprintf("member %q of namespace %q changed type from %s to %s",
				pair.New.Label, ns.ID, pair.Old.Type, pair.New.Type)
			if pair.Compatible {
				severity = lint.SeverityWarning
			}
			issues = append(issues, lint.NewIssue(r.Name(), severity, message, member(pair.New.Label)))
		}
		if pair.LabelChanged {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("member %q replaced %q in namespace %q", pair.New.Label, pair.Old.Label, ns.ID),
				member(pair.New.Label),
			))
		}
	}

	return issues
}
