// Package initializer provides the initializer-convention rules: guard
// modifiers on init functions, the parent-init exactly-once discipline,
// constructor hygiene, and cycle detection over the init call graph. Rules
// skip contracts that take no part in the initializer convention.
package initializer

import (
	"github.com/CoveMB/openzeppelin-upgrades/initgraph"
	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// Rules returns the full initializer rule set.
func Rules() []lint.Rule {
	return []lint.Rule{
		NewMissingInitializerModifierRule(),
		NewMissingOnlyInitializingRule(),
		NewDuplicateParentInitRule(),
		NewMissingParentInitRule(),
		NewUnsafeConstructorRule(),
		NewInitCycleRule(),
	}
}

// upgradeableReport fetches the contract's initializer report, or nil when
// the contract is outside the initializer convention or has no AST.
func upgradeableReport(ctx *lint.Context) *initgraph.Report {
	if ctx.Artifact == nil || ctx.Artifact.AST == nil {
		return nil
	}
	report, err := ctx.InitReport()
	if err != nil || report == nil || !report.Upgradeable() {
		return nil
	}
	return report
}
