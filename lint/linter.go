package lint

import "sort"

// Ignore suppresses issues from a rule, a contract, or a rule on a contract.
// An empty field matches everything.
type Ignore struct {
	Rule     string
	Contract string
}

func (ig Ignore) matches(issue Issue) bool {
	if ig.Rule != "" && ig.Rule != issue.Rule {
		return false
	}
	if ig.Contract != "" {
		if issue.Location == nil || issue.Location.Contract != ig.Contract {
			return false
		}
	}
	return true
}

// Options adjust how a rule set is applied.
type Options struct {
	// Severities overrides the severity of issues per rule name.
	Severities map[string]Severity

	// Ignores drops matching issues entirely.
	Ignores []Ignore
}

// Linter applies a set of rules to a check run and post-processes the
// resulting issues: severity overrides, ignores, and location-sorted output.
type Linter struct {
	rules []Rule
	opts  Options
}

// New creates a Linter over the given rules.
func New(opts Options, rules ...Rule) *Linter {
	return &Linter{rules: rules, opts: opts}
}

// Rules returns the configured rules.
func (l *Linter) Rules() []Rule {
	return l.rules
}

// Run executes every rule against the context and returns the surviving
// issues sorted by location.
func (l *Linter) Run(ctx *Context) []Issue {
	var issues []Issue

	for _, rule := range l.rules {
		for _, issue := range rule.Check(ctx) {
			if !issue.IsValid() {
				continue
			}
			if severity, ok := l.opts.Severities[issue.Rule]; ok {
				issue.Severity = severity
			}
			if l.ignored(issue) {
				continue
			}
			issues = append(issues, issue)
		}
	}

	sortIssues(issues)
	return issues
}

func (l *Linter) ignored(issue Issue) bool {
	for _, ig := range l.opts.Ignores {
		if ig.matches(issue) {
			return true
		}
	}
	return false
}

// sortIssues orders issues by contract, member, then rule name, with
// locationless issues first.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]

		if a.Location == nil && b.Location == nil {
			return a.Rule < b.Rule
		}
		if a.Location == nil {
			return true
		}
		if b.Location == nil {
			return false
		}

		if a.Location.Contract != b.Location.Contract {
			return a.Location.Contract < b.Location.Contract
		}
		if a.Location.Member != b.Location.Member {
			return a.Location.Member < b.Location.Member
		}
		return a.Rule < b.Rule
	})
}
