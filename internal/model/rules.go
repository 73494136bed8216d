package model

// RuleID identifies a detector.
type RuleID string

// Rule identifiers.
const (
	RuleLoopInvariantCall         RuleID = "PS1001"
	RuleStringConcatInLoop        RuleID = "PS1002"
	RuleRedundantBranchAssignment RuleID = "PS1003"
	RuleSealableType              RuleID = "PS2001"
)

// Rule describes a detector and its default severity.
type Rule struct {
	ID       RuleID
	Title    string
	Severity Severity
}

// Rules lists every detector in ID order.
var Rules = []Rule{
	{ID: RuleLoopInvariantCall, Title: "Call in loop condition is loop-invariant", Severity: SeverityWarning},
	{ID: RuleStringConcatInLoop, Title: "String concatenated inside a loop", Severity: SeverityWarning},
	{ID: RuleRedundantBranchAssignment, Title: "Both branches of a conditional assign the same value", Severity: SeverityInfo},
	{ID: RuleSealableType, Title: "Type can be sealed", Severity: SeverityInfo},
}

// LookupRule returns the rule with the given ID.
func LookupRule(id RuleID) (Rule, bool) {
	for _, rule := range Rules {
		if rule.ID == id {
			return rule, true
		}
	}

	return Rule{}, false
}

// MustLookupRule is like LookupRule but panics when id is not in the catalog.
func MustLookupRule(id RuleID) Rule {
	rule, ok := LookupRule(id)
	if !ok {
		panic("model: unknown rule " + string(id))
	}

	return rule
}
