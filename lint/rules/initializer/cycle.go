package initializer

import (
	"fmt"
	"strings"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// InitCycleRule flags cycles in the initializer call graph. A cyclic init
// chain either recurses until it reverts or silently re-enters a parent
// initializer, so it is always a hard error.
type InitCycleRule struct{}

// NewInitCycleRule creates the rule.
func NewInitCycleRule() *InitCycleRule {
	return &InitCycleRule{}
}

// Name returns the unique identifier for this rule.
func (r *InitCycleRule) Name() string {
	return "init-cycle"
}

// Description returns a human-readable description of what this rule checks.
func (r *InitCycleRule) Description() string {
	return "The initializer call graph must be acyclic"
}

// Check runs once per run against the whole graph.
func (r *InitCycleRule) Check(ctx *lint.Context) []lint.Issue {
	root := ctx.Root()
	cycle, found := root.Graph.Cycle()
	if !found {
		return nil
	}

	path := make([]string, 0, len(cycle))
	for _, ref := range cycle {
		path = append(path, ref.String())
	}

	first := cycle[0]
	return []lint.Issue{lint.NewIssue(
		r.Name(),
		lint.SeverityError,
		fmt.Sprintf("initializer call cycle: %s", strings.Join(path, " -> ")),
		lint.MemberLocation(first.Contract, first.Name),
	).WithContext("cycle", path)}
}
