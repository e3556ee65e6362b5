package initializer

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// DuplicateParentInitRule flags parent init functions reached more than
// once from a contract's entry point. Double initialization resets parent
// state mid-flight.
type DuplicateParentInitRule struct{}

// NewDuplicateParentInitRule creates the rule.
func NewDuplicateParentInitRule() *DuplicateParentInitRule {
	return &DuplicateParentInitRule{}
}

// Name returns the unique identifier for this rule.
func (r *DuplicateParentInitRule) Name() string {
	return "duplicate-parent-init"
}

// Description returns a human-readable description of what this rule checks.
func (r *DuplicateParentInitRule) Description() string {
	return "Each parent initializer must be reached exactly once from the entry point"
}

// Check reports every parent init reached more than once.
func (r *DuplicateParentInitRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		report := upgradeableReport(contractCtx)
		if report == nil {
			return nil
		}

		for _, ref := range report.Duplicated {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("parent initializer %s is reached more than once from the entry point", ref),
				lint.MemberLocation(contractCtx.Artifact.FQN(), ref.Name),
			).WithContext("parent", ref.Contract))
		}
		return nil
	})

	return issues
}

// MissingParentInitRule flags linearized parents whose init function the
// entry point never reaches, leaving parent state uninitialized. A warning:
// some bases are deliberately initialized lazily.
type MissingParentInitRule struct{}

// NewMissingParentInitRule creates the rule.
func NewMissingParentInitRule() *MissingParentInitRule {
	return &MissingParentInitRule{}
}

// Name returns the unique identifier for this rule.
func (r *MissingParentInitRule) Name() string {
	return "missing-parent-init"
}

// Description returns a human-readable description of what this rule checks.
func (r *MissingParentInitRule) Description() string {
	return "Every linearized parent exposing an init function should be initialized by the entry point"
}

// Check reports every owed parent init that is never reached.
func (r *MissingParentInitRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		report := upgradeableReport(contractCtx)
		if report == nil {
			return nil
		}

		for _, ref := range report.Missing {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityWarning,
				fmt.Sprintf("parent initializer %s is never called from the entry point", ref),
				lint.MemberLocation(contractCtx.Artifact.FQN(), ref.Name),
			).WithContext("parent", ref.Contract))
		}
		return nil
	})

	return issues
}
