package storage

import (
	"fmt"

	"github.com/CoveMB/openzeppelin-upgrades/lint"
)

// GapConsistencyRule checks the gap bookkeeping: a contract that consumes
// reserved slots must shrink its gap by exactly the number of slots its new
// variables occupy, and a gap must never grow.
type GapConsistencyRule struct{}

// NewGapConsistencyRule creates the rule.
func NewGapConsistencyRule() *GapConsistencyRule {
	return &GapConsistencyRule{}
}

// Name returns the unique identifier for this rule.
func (r *GapConsistencyRule) Name() string {
	return "gap-consistency"
}

// Description returns a human-readable description of what this rule checks.
func (r *GapConsistencyRule) Description() string {
	return "Storage gaps must shrink by exactly the slots consumed by new variables, and never grow"
}

// Check compares each declaring contract's gap delta against the slots its
// inserted variables occupy inside the freed region.
func (r *GapConsistencyRule) Check(ctx *lint.Context) []lint.Issue {
	var issues []lint.Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *lint.Context) error {
		if contractCtx.Delta == nil {
			return nil
		}
		delta := contractCtx.Delta

		// Slots consumed inside old gap regions, per gap owner.
		consumed := map[string]int64{}
		for _, item := range delta.Inserted {
			if owner, ok := inOldGap(contractCtx, item.Slot); ok {
				consumed[owner] += int64(itemSlots(delta.New, item))
			}
		}

		for owner, gapDelta := range delta.GapDelta {
			switch {
			case gapDelta > 0:
				issues = append(issues, lint.NewIssue(
					r.Name(),
					lint.SeverityError,
					fmt.Sprintf("storage gap of %s grew by %d slots, shifting every successor", owner, gapDelta),
					lint.MemberLocation(contractCtx.Artifact.FQN(), "__gap"),
				).WithContext("gap_owner", owner))

			case -gapDelta != consumed[owner]:
				issues = append(issues, lint.NewIssue(
					r.Name(),
					lint.SeverityError,
					fmt.Sprintf("storage gap of %s shrank by %d slots but new variables consume %d",
						owner, -gapDelta, consumed[owner]),
					lint.MemberLocation(contractCtx.Artifact.FQN(), "__gap"),
				).WithContext("gap_owner", owner).
					WithContext("shrunk_by", -gapDelta).
					WithContext("consumed", consumed[owner]))
			}
		}

		// Variables dropped into a gap without any gap resize at all.
		for owner, n := range consumed {
			if _, resized := delta.GapDelta[owner]; !resized && n > 0 {
				issues = append(issues, lint.NewIssue(
					r.Name(),
					lint.SeverityError,
					fmt.Sprintf("new variables consume %d reserved slots of %s but its gap was not shrunk", n, owner),
					lint.MemberLocation(contractCtx.Artifact.FQN(), "__gap"),
				).WithContext("gap_owner", owner))
			}
		}
		return nil
	})

	return issues
}
