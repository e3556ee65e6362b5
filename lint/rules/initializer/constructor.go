package initializer

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// UnsafeConstructorRule flags constructors of upgradeable contracts that do
// anything besides calling _disableInitializers. Constructor effects live in
// the implementation, not the proxy, so any state written there is invisible
// after deployment.
type UnsafeConstructorRule struct{}

// NewUnsafeConstructorRule creates the rule.
func NewUnsafeConstructorRule() *UnsafeConstructorRule {
	return &UnsafeConstructorRule{}
}

// Name returns the unique identifier for this rule.
func (r *UnsafeConstructorRule) Name() string {
	return "unsafe-constructor"
}

// Description returns a human-readable description of what this rule checks.
func (r *UnsafeConstructorRule) Description() string {
	return "Constructors of upgradeable contracts may only call _disableInitializers"
}

// Check examines the constructor of every upgradeable contract.
func (r *UnsafeConstructorRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		report := upgradeableReport(contractCtx)
		if report == nil || !report.HasConstructor {
			return nil
		}

		for _, call := range report.ConstructorCalls {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("constructor calls %q; its effects live in the implementation, not the proxy", call),
				lint.MemberLocation(contractCtx.Artifact.FQN(), "constructor"),
			).WithContext("call", call))
		}
		for _, stmt := range report.ConstructorStatements {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("constructor executes a %s statement; only _disableInitializers may run here", stmt),
				lint.MemberLocation(contractCtx.Artifact.FQN(), "constructor"),
			).WithContext("statement", stmt))
		}
		return nil
	})

	return issues
}
