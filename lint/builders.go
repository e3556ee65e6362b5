package lint

import (
	"github.com/CoveMB/openzeppelin-upgrades/layout"
)

// CheckFunc represents a function that performs rule checking on a context.
// It returns the issues found, or nil if no issues were detected.
type CheckFunc func(ctx *Context) []Issue

// ContractCheckFunc represents a function that checks a single contract.
type ContractCheckFunc func(ctx *Context) []Issue

// RequirementFunc represents a function that checks if a requirement is
// satisfied for a contract. It returns true when the requirement is met.
type RequirementFunc func(ctx *Context) bool

// ForbiddenFunc represents a function that checks if a forbidden condition
// holds for a contract. It returns true when the forbidden pattern is found.
type ForbiddenFunc func(ctx *Context) bool

// SimpleRule creates a rule from a bare check function. This is the most
// basic rule builder, for rules that need full access to the run context.
//
//nolint:ireturn // Builder functions should return interfaces
func SimpleRule(name, description string, check CheckFunc) Rule {
	return &simpleRule{
		name:        name,
		description: description,
		check:       check,
	}
}

// simpleRule implements the Rule interface using a CheckFunc.
type simpleRule struct {
	name        string
	description string
	check       CheckFunc
}

// Name returns the unique identifier for this rule.
func (r *simpleRule) Name() string {
	return r.name
}

// Description returns a human-readable description of what this rule checks.
func (r *simpleRule) Description() string {
	return r.description
}

// Check executes the rule's check function and returns any issues found.
func (r *simpleRule) Check(ctx *Context) []Issue {
	return r.check(ctx)
}

// ContractRule creates a rule that runs once per contract. The check
// function receives a contract-level context with the reference counterpart
// and layout delta already resolved.
//
//nolint:ireturn // Builder functions should return interfaces
func ContractRule(name, description string, check ContractCheckFunc) Rule {
	return &contractRule{
		name:        name,
		description: description,
		check:       check,
	}
}

// contractRule implements the Rule interface for per-contract rules.
type contractRule struct {
	name        string
	description string
	check       ContractCheckFunc
}

// Name returns the unique identifier for this rule.
func (r *contractRule) Name() string {
	return r.name
}

// Description returns a human-readable description of what this rule checks.
func (r *contractRule) Description() string {
	return r.description
}

// Check applies the check function to every contract in the run.
func (r *contractRule) Check(ctx *Context) []Issue {
	var issues []Issue

	_ = ctx.Root().WalkContracts(func(contractCtx *Context) error {
		if found := r.check(contractCtx); found != nil {
			issues = append(issues, found...)
		}
		return nil
	})

	return issues
}

// RequireRule creates a per-contract rule that reports an error when the
// requirement function returns false.
//
//nolint:ireturn // Builder functions should return interfaces
func RequireRule(name, description string, requirement RequirementFunc) Rule {
	return ContractRule(name, description, func(ctx *Context) []Issue {
		if requirement(ctx) {
			return nil
		}
		return []Issue{NewIssue(name, SeverityError, description, ContractLocation(ctx))}
	})
}

// ForbidRule creates a per-contract rule that reports an error when the
// forbidden function returns true.
//
//nolint:ireturn // Builder functions should return interfaces
func ForbidRule(name, description string, forbidden ForbiddenFunc) Rule {
	return ContractRule(name, description, func(ctx *Context) []Issue {
		if !forbidden(ctx) {
			return nil
		}
		return []Issue{NewIssue(name, SeverityError, description, ContractLocation(ctx))}
	})
}

// ContractLocation builds a Location for the context's current contract.
func ContractLocation(ctx *Context) *Location {
	if ctx.Artifact == nil {
		return nil
	}
	return &Location{Contract: ctx.Artifact.FQN()}
}

// ItemLocation builds a Location pointing at one storage item.
func ItemLocation(contract string, item layout.Item) *Location {
	loc := &Location{Contract: contract, Member: item.Label}
	if item.Slot != nil {
		loc.Slot = item.Slot.String()
	}
	return loc
}

// MemberLocation builds a Location pointing at a named member.
func MemberLocation(contract, member string) *Location {
	return &Location{Contract: contract, Member: member}
}
