package lint

// Rule defines the interface that all checking rules implement. Rules are
// the core building blocks of the framework, each responsible for detecting
// one class of upgrade-safety violation.
type Rule interface {
	// Name returns a unique identifier for the rule.
	// This should be a kebab-case string like "no-deleted-variable".
	Name() string

	// Description returns a human-readable description of what the rule checks.
	Description() string

	// Check examines the provided Context and returns any issues found.
	// The context provides access to the artifact sets, the current
	// contract and item, and hierarchical navigation helpers.
	Check(ctx *Context) []Issue
}
