package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Format represents the output format for reporting issues.
type Format int

const (
	// FormatText outputs issues in a human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs issues in JSON format.
	FormatJSON
	// FormatSARIF outputs issues in SARIF (Static Analysis Results
	// Interchange Format) for code-scanning integrations.
	FormatSARIF
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatSARIF:
		return "sarif"
	default:
		return "unknown"
	}
}

// ParseFormat converts a format name to its value.
func ParseFormat(name string) (Format, bool) {
	switch name {
	case "text", "":
		return FormatText, true
	case "json":
		return FormatJSON, true
	case "sarif":
		return FormatSARIF, true
	default:
		return FormatText, false
	}
}

// Reporter handles formatting and outputting issues.
type Reporter struct {
	writer io.Writer
	format Format
}

// NewReporter creates a new Reporter with the specified output writer and format.
func NewReporter(writer io.Writer, format Format) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// Report writes the issues to the output writer in the configured format.
// Issues are sorted by location before reporting.
func (r *Reporter) Report(issues []Issue) error {
	if len(issues) == 0 && r.format == FormatText {
		return nil
	}

	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	sortIssues(sorted)

	switch r.format {
	case FormatText:
		return r.reportText(sorted)
	case FormatJSON:
		return r.reportJSON(sorted)
	case FormatSARIF:
		return r.reportSARIF(sorted)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportText outputs issues in human-readable text format.
func (r *Reporter) reportText(issues []Issue) error {
	for _, issue := range issues {
		if _, err := fmt.Fprintln(r.writer, issue.String()); err != nil {
			return fmt.Errorf("failed to write text output: %w", err)
		}
	}
	return nil
}

// jsonIssue is the JSON projection of an Issue.
type jsonIssue struct {
	Rule     string                 `json:"rule"`
	Severity string                 `json:"severity"`
	Message  string                 `json:"message"`
	Location *Location              `json:"location,omitempty"`
	Fix      *Fix                   `json:"fix,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// reportJSON outputs issues in JSON format.
func (r *Reporter) reportJSON(issues []Issue) error {
	out := struct {
		Issues []jsonIssue `json:"issues"`
	}{Issues: make([]jsonIssue, 0, len(issues))}

	for _, issue := range issues {
		ctx := issue.Context
		if len(ctx) == 0 {
			ctx = nil
		}
		out.Issues = append(out.Issues, jsonIssue{
			Rule:     issue.Rule,
			Severity: issue.Severity.String(),
			Message:  issue.Message,
			Location: issue.Location,
			Fix:      issue.Fix,
			Context:  ctx,
		})
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// reportSARIF outputs issues in SARIF 2.1.0. Contract locations map to the
// declaring source file plus a logical location with the fully qualified
// contract and member names.
func (r *Reporter) reportSARIF(issues []Issue) error {
	ruleMap := make(map[string]Issue)
	var ruleNames []string
	for _, issue := range issues {
		if _, ok := ruleMap[issue.Rule]; !ok {
			ruleMap[issue.Rule] = issue
			ruleNames = append(ruleNames, issue.Rule)
		}
	}
	sort.Strings(ruleNames)

	rules := make([]map[string]interface{}, 0, len(ruleNames))
	for _, name := range ruleNames {
		rules = append(rules, map[string]interface{}{
			"id":   name,
			"name": name,
			"help": map[string]interface{}{
				"text": ruleMap[name].Message,
			},
		})
	}

	results := make([]map[string]interface{}, 0, len(issues))
	for _, issue := range issues {
		result := map[string]interface{}{
			"ruleId":  issue.Rule,
			"level":   sarifLevel(issue.Severity),
			"message": map[string]interface{}{"text": issue.Message},
		}
		if issue.Location != nil {
			result["locations"] = []map[string]interface{}{{
				"physicalLocation": map[string]interface{}{
					"artifactLocation": map[string]interface{}{
						"uri": sourcePathOf(issue.Location.Contract),
					},
				},
				"logicalLocations": []map[string]interface{}{{
					"fullyQualifiedName": issue.Location.String(),
					"kind":               "type",
				}},
			}}
		}
		results = append(results, result)
	}

	sarif := map[string]interface{}{
		"version": "2.1.0",
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":  "upgradeguard",
						"rules": rules,
					},
				},
				"results": results,
			},
		},
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sarif); err != nil {
		return fmt.Errorf("failed to encode SARIF output: %w", err)
	}
	return nil
}

// sarifLevel maps a severity to the SARIF result level vocabulary, which
// has no "info": note|warning|error.
func sarifLevel(s Severity) string {
	if s == SeverityInfo {
		return "note"
	}
	return s.String()
}

// sourcePathOf extracts the source file from a fully qualified contract name.
func sourcePathOf(fqn string) string {
	if idx := strings.LastIndex(fqn, ":"); idx > 0 {
		return fqn[:idx]
	}
	return fqn
}
