package rules

import "strings"

// ApplyOverrides returns a new RuleSet built from rs with disabled rule IDs
// dropped and severity overrides applied, per `.vetra.yaml`'s
// `scan.rules.disable` / `scan.rules.severity_override` (SPEC_FULL §10).
// rs itself is left unmodified.
func ApplyOverrides(rs *RuleSet, disable []string, severityOverride map[string]string) *RuleSet {
	disabled := make(map[string]bool, len(disable))
	for _, id := range disable {
		disabled[id] = true
	}

	out := NewRuleSet()
	for _, r := range rs.Rules() {
		if disabled[r.ID] {
			continue
		}
		if sev, ok := severityOverride[r.ID]; ok {
			r.Severity = strings.ToUpper(sev)
		}
		out.Add(r)
	}
	return out
}
