// Package lint provides the rule-based checking framework for upgrade
// safety. Rules examine contract artifacts, layout deltas and initializer
// reports through a hierarchical context, and report issues through
// pluggable output formats.
package lint

import "fmt"

// Severity represents the severity level of an issue.
type Severity int

const (
	// SeverityError indicates a violation that makes an upgrade unsafe.
	SeverityError Severity = iota
	// SeverityWarning indicates a change that needs human review.
	SeverityWarning
	// SeverityInfo indicates a suggestion or convention nudge.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a severity name to its value.
func ParseSeverity(name string) (Severity, bool) {
	switch name {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityError, false
	}
}

// Location identifies where in a contract an issue was found. Contract is
// the fully qualified name; Member narrows to a variable, struct or function
// when the issue is that specific.
type Location struct {
	Contract string `json:"contract"`
	Member   string `json:"member,omitempty"`
	Slot     string `json:"slot,omitempty"`
}

// String renders the location as "contract#member".
func (l Location) String() string {
	if l.Member == "" {
		return l.Contract
	}
	return l.Contract + "#" + l.Member
}

// Fix describes a suggested source change that resolves an issue.
type Fix struct {
	// Description explains what the fix does.
	Description string
	// Before contains the declaration as written.
	Before string
	// After contains the suggested replacement.
	After string
}

// Issue represents a single finding.
type Issue struct {
	// Rule is the identifier of the rule that found this issue.
	Rule string
	// Severity indicates the importance level of the issue.
	Severity Severity
	// Message is a human-readable description of the issue.
	Message string
	// Location specifies which contract and member the issue concerns.
	Location *Location
	// Fix contains an optional suggested fix for the issue.
	Fix *Fix
	// Context provides additional metadata about the issue.
	Context map[string]interface{}
}

// String returns a formatted one-line representation of the issue.
func (i Issue) String() string {
	if i.Location != nil {
		return fmt.Sprintf("%s: %s [%s] %s",
			i.Severity, i.Location, i.Rule, i.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", i.Severity, i.Rule, i.Message)
}

// IsValid checks if the issue has all required fields.
func (i Issue) IsValid() bool {
	return i.Rule != "" && i.Message != ""
}

// NewIssue creates a new Issue with the given parameters.
func NewIssue(rule string, severity Severity, message string, location *Location) Issue {
	return Issue{
		Rule:     rule,
		Severity: severity,
		Message:  message,
		Location: location,
		Context:  make(map[string]interface{}),
	}
}

// WithFix adds a suggested fix to an issue and returns the modified issue.
func (i Issue) WithFix(description, before, after string) Issue {
	i.Fix = &Fix{
		Description: description,
		Before:      before,
		After:       after,
	}
	return i
}

// WithContext adds context metadata to an issue and returns the modified issue.
func (i Issue) WithContext(key string, value interface{}) Issue {
	if i.Context == nil {
		i.Context = make(map[string]interface{})
	}
	i.Context[key] = value
	return i
}

// HasErrors reports whether any issue carries error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
