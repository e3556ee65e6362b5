package storage

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// NoInsertedVariableRule flags new state variables that appear inside the
// reference layout's extent: an insertion shifts every successor. New
// variables placed into a shrunk gap are exempt here and accounted for by
// the gap-consistency rule instead.
type NoInsertedVariableRule struct{}

// NewNoInsertedVariableRule creates the rule.
func NewNoInsertedVariableRule() *NoInsertedVariableRule {
	return &NoInsertedVariableRule{}
}

// Name returns the unique identifier for this rule.
func (r *NoInsertedVariableRule) Name() string {
	return "no-inserted-variable"
}

// Description returns a human-readable description of what this rule checks.
func (r *NoInsertedVariableRule) Description() string {
	return "New state variables must be appended after the existing layout, not inserted into it"
}

// Check reports each inserted item outside a reserved gap region.
func (r *NoInsertedVariableRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		if contractCtx.Delta == nil {
			return nil
		}

		for _, item := range contractCtx.Delta.Inserted {
			if _, ok := inOldGap(contractCtx, item.Slot); ok {
				continue
			}
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("variable %q was inserted at slot %s inside the existing layout", item.Label, item.Slot),
				lint.ItemLocation(contractCtx.Artifact.FQN(), item),
			).WithContext("declared_by", item.Contract))
		}
		return nil
	})

	return issues
}
