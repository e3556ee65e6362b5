package storage

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// NoDeletedVariableRule flags state variables present in the reference
// layout whose location holds nothing in the new one. Deleting a variable
// shifts every successor onto stale data.
type NoDeletedVariableRule struct{}

// NewNoDeletedVariableRule creates the rule.
func NewNoDeletedVariableRule() *NoDeletedVariableRule {
	return &NoDeletedVariableRule{}
}

// Name returns the unique identifier for this rule.
func (r *NoDeletedVariableRule) Name() string {
	return "no-deleted-variable"
}

// Description returns a human-readable description of what this rule checks.
func (r *NoDeletedVariableRule) Description() string {
	return "State variables must not be removed from the storage layout between versions"
}

// Check reports each deleted item. Gaps are exempt here; their shrinkage is
// the gap-consistency rule's business.
func (r *NoDeletedVariableRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		if contractCtx.Delta == nil {
			return nil
		}

		for _, item := range contractCtx.Delta.Deleted {
			if contractCtx.GapMatcher.IsGap(contractCtx.Delta.Old, item) {
				continue
			}
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("variable %q was deleted from storage (declared by %s)", item.Label, item.Contract),
				lint.ItemLocation(contractCtx.Artifact.FQN(), item),
			).WithContext("declared_by", item.Contract))
		}
		return nil
	})

	return issues
}
