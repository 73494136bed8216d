package model

import "fmt"

// Severity is the reporting level of a finding.
type Severity int

// Available Severity values.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}

	return "unknown"
}

// ParseSeverity maps a severity name to its value.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}

	return SeverityInfo, fmt.Errorf("unknown severity %q", name)
}

// Finding is one reported code pattern.
type Finding struct {
	RuleID   RuleID
	Severity Severity
	Message  string
	Location SourceSpan
}

// Before orders findings by location, then rule.
func (f Finding) Before(other Finding) bool {
	if f.Location != other.Location {
		return f.Location.Before(other.Location)
	}

	return f.RuleID < other.RuleID
}

// Report is the stored outcome of one analysis pass.
type Report struct {
	PassID   string
	Language string
	Findings []Finding
}
