package storage

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/compare"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// NoRetypedVariableRule flags type and label changes on location-matched
// variables. Incompatible retypes and silent renames are errors;
// layout-compatible retypes and annotated renames are downgraded to
// warnings because the slots still line up.
type NoRetypedVariableRule struct{}

// NewNoRetypedVariableRule creates the rule.
func NewNoRetypedVariableRule() *NoRetypedVariableRule {
	return &NoRetypedVariableRule{}
}

// Name returns the unique identifier for this rule.
func (r *NoRetypedVariableRule) Name() string {
	return "no-retyped-variable"
}

// Description returns a human-readable description of what this rule checks.
func (r *NoRetypedVariableRule) Description() string {
	return "State variables must keep their type and name across versions"
}

// Check examines every location-matched pair in every contract delta.
func (r *NoRetypedVariableRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		if contractCtx.Delta == nil {
			return nil
		}

		for _, pair := range contractCtx.Delta.Pairs {
			// Gap resizes pair a gap with a differently sized gap; the
			// gap-consistency rule owns that arithmetic.
			if contractCtx.GapMatcher.IsGap(contractCtx.Delta.Old, pair.Old) &&
				contractCtx.GapMatcher.IsGap(contractCtx.Delta.New, pair.New) {
				continue
			}
			issues = append(issues, r.checkPair(contractCtx, pair)...)
		}
		return nil
	})

	return issues
}

func (r *NoRetypedVariableRule) checkPair(ctx *lint.Context, pair compare.Pair) []lint.Issue {
	var issues []lint.Issue
	fqn := ctx.Artifact.FQN()

	if pair.TypeChanged {
		severity := lint.SeverityError
		message := fmt.Sprintf("variable %q changed type from %s to %s, shifting its storage footprint",
			pair.New.Label, pair.Old.Type, pair.New.Type)
		if pair.Compatible {
			severity = lint.SeverityWarning
			message = fmt.Sprintf("variable %q changed type from %s to %s; slots line up but values are reinterpreted",
				pair.New.Label, pair.Old.Type, pair.New.Type)
		}
		issues = append(issues, lint.NewIssue(r.Name(), severity, message,
			lint.ItemLocation(fqn, pair.New)).
			WithContext("old_type", string(pair.Old.Type)).
			WithContext("new_type", string(pair.New.Type)))
	}

	if pair.LabelChanged {
		if pair.Renamed {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityWarning,
				fmt.Sprintf("variable %q was renamed from %q (annotated)", pair.New.Label, pair.Old.Label),
				lint.ItemLocation(fqn, pair.New),
			))
		} else {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("variable %q replaced %q at slot %s without a rename annotation",
					pair.New.Label, pair.Old.Label, pair.New.Slot),
				lint.ItemLocation(fqn, pair.New),
			).WithFix(
				"annotate the declaration with the previous name",
				pair.New.Label,
				fmt.Sprintf("/// @custom:oz-renamed-from %s", pair.Old.Label),
			))
		}
	}

	return issues
}
