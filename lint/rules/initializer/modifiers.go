package initializer

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// MissingInitializerModifierRule flags initializer entry points that lack
// the initializer (or reinitializer) guard, leaving them callable more than
// once.
type MissingInitializerModifierRule struct{}

// NewMissingInitializerModifierRule creates the rule.
func NewMissingInitializerModifierRule() *MissingInitializerModifierRule {
	return &MissingInitializerModifierRule{}
}

// Name returns the unique identifier for this rule.
func (r *MissingInitializerModifierRule) Name() string {
	return "missing-initializer-modifier"
}

// Description returns a human-readable description of what this rule checks.
func (r *MissingInitializerModifierRule) Description() string {
	return "Initializer entry points must carry the initializer or reinitializer modifier"
}

// Check examines the entry point of every upgradeable contract.
func (r *MissingInitializerModifierRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		report := upgradeableReport(contractCtx)
		if report == nil || report.Initializer == nil {
			return nil
		}

		if report.InitializerModifier == "" {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("function %q can be called repeatedly without an initializer guard",
					report.Initializer.Ref.Name),
				lint.MemberLocation(contractCtx.Artifact.FQN(), report.Initializer.Ref.Name),
			).WithFix(
				"guard the entry point",
				fmt.Sprintf("function %s(...)", report.Initializer.Ref.Name),
				fmt.Sprintf("function %s(...) initializer", report.Initializer.Ref.Name),
			))
		}
		return nil
	})

	return issues
}

// MissingOnlyInitializingRule flags __X_init and __X_init_unchained
// functions without the onlyInitializing modifier, which would let them run
// outside an initialization phase.
type MissingOnlyInitializingRule struct{}

// NewMissingOnlyInitializingRule creates the rule.
func NewMissingOnlyInitializingRule() *MissingOnlyInitializingRule {
	return &MissingOnlyInitializingRule{}
}

// Name returns the unique identifier for this rule.
func (r *MissingOnlyInitializingRule) Name() string {
	return "missing-only-initializing"
}

// Description returns a human-readable description of what this rule checks.
func (r *MissingOnlyInitializingRule) Description() string {
	return "Inheritable init functions must carry the onlyInitializing modifier"
}

// Check examines every init-chain function declared by each contract.
func (r *MissingOnlyInitializingRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		report := upgradeableReport(contractCtx)
		if report == nil {
			return nil
		}

		for _, ref := range report.UnguardedInits {
			issues = append(issues, lint.NewIssue(
				r.Name(),
				lint.SeverityError,
				fmt.Sprintf("function %q lacks the onlyInitializing modifier", ref.Name),
				lint.MemberLocation(contractCtx.Artifact.FQN(), ref.Name),
			))
		}
		return nil
	})

	return issues
}
