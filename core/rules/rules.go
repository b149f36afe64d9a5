// Package rules implements the YAML-declared detection rule corpus: parsing
// rule records into compiled matchers, indexing them by file type, and
// applying them to content to produce signature findings.
package rules

import "regexp"

// AnyFileType is the sentinel file_type that makes a rule apply to every
// content type, independent of content.FileType.
const AnyFileType = "any"

// Rule is a single compiled detection rule. Unlike the YAML record it was
// parsed from, every Rule value here is known-good: its Compiled slice is
// guaranteed non-empty.
type Rule struct {
	ID              string
	Category        string
	Severity        string
	FileTypes       []string
	ExcludePatterns []*regexp.Regexp
	Description     string
	Remediation     string
	Tags            []string
	Metadata        map[string]string

	// Compiled holds the regexes derived from Patterns after (?i) flag
	// normalization. Always non-empty for a Rule held in a RuleSet.
	Compiled []*regexp.Regexp
}

// AppliesToAny reports whether the rule's file_types include the "any"
// sentinel.
func (r Rule) AppliesToAny() bool {
	for _, ft := range r.FileTypes {
		if ft == AnyFileType {
			return true
		}
	}
	return false
}

// RuleSet is an ordered, validated collection of compiled rules.
type RuleSet struct {
	rules []Rule
	byID  map[string]int
}

// NewRuleSet returns an empty, ready-to-use RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{byID: make(map[string]int)}
}

// Add appends r to the set, indexing it by ID. A duplicate ID overwrites the
// index entry but both rules remain in Rules() order; callers should not
// rely on IDs being unique across a corpus assembled from multiple files.
func (rs *RuleSet) Add(r Rule) {
	rs.byID[r.ID] = len(rs.rules)
	rs.rules = append(rs.rules, r)
}

// Rules returns every compiled rule in load order.
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// Len returns the number of compiled rules held.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// ByID returns the rule with the given ID, if the set has been built such
// that IDs are unique (the common case). The boolean reports whether a rule
// was found.
func (rs *RuleSet) ByID(id string) (Rule, bool) {
	idx, ok := rs.byID[id]
	if !ok {
		return Rule{}, false
	}
	return rs.rules[idx], true
}
