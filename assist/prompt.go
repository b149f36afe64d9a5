package assist

import (
	"fmt"
	"strings"

	"github.com/vetra-sec/vetra/core/findings"
)

// systemPrompt returns the system message that instructs the LLM on how to
// analyze and explain vetra scan findings.
func systemPrompt() string {
	return `You are a security expert analyzing findings from vetra, a static scanner
for agent skills, browser/IDE extensions, and MCP servers. For each finding,
provide a JSON array with objects containing these fields:
- "fingerprint": the finding's fingerprint, copied verbatim (string)
- "rule_id": the rule ID (string)
- "title": a concise title for the issue (string)
- "explanation": what this finding means in plain language (string)
- "impact": why this matters and what could go wrong if an agent loaded this content (string)
- "remediation": specific, actionable steps to fix the issue (string)
- "references": relevant URLs for further reading (array of strings, optional)

Respond ONLY with a valid JSON array. Do not include markdown fences or other text.
Be concise and actionable. Focus on practical remediation advice.`
}

// formatFindings converts a batch of findings into structured text for the LLM.
func formatFindings(ff []findings.Finding) string {
	var b strings.Builder
	for i, f := range ff {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "Fingerprint: %s\n", f.Fingerprint)
		fmt.Fprintf(&b, "Rule ID: %s\n", f.RuleID)
		fmt.Fprintf(&b, "Severity: %s\n", f.Severity)
		fmt.Fprintf(&b, "Source: %s\n", f.Source)
		if f.Confidence > 0 {
			fmt.Fprintf(&b, "Confidence: %.2f\n", f.Confidence)
		}
		fmt.Fprintf(&b, "File: %s\n", f.File)
		if f.Line > 0 {
			fmt.Fprintf(&b, "Line: %d\n", f.Line)
		}
		fmt.Fprintf(&b, "Message: %s\n", f.Message)
		if f.MatchText != "" {
			fmt.Fprintf(&b, "Matched text: %s\n", f.MatchText)
		}
		if f.Remediation != "" {
			fmt.Fprintf(&b, "Rule remediation: %s\n", f.Remediation)
		}
	}
	return b.String()
}

// formatContext summarises the finding set for the LLM so it can provide
// contextually aware explanations.
func formatContext(ff []findings.Finding) string {
	var b strings.Builder
	b.WriteString("Scan context:\n")

	counts := map[findings.Severity]int{}
	sources := map[findings.Source]int{}
	for _, f := range ff {
		counts[f.Severity]++
		sources[f.Source]++
	}
	fmt.Fprintf(&b, "Total findings: %d\n", len(ff))
	for _, sev := range []findings.Severity{
		findings.SeverityCritical,
		findings.SeverityHigh,
		findings.SeverityMedium,
		findings.SeverityLow,
	} {
		if c := counts[sev]; c > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", sev, c)
		}
	}
	fmt.Fprintf(&b, "Signature matches: %d, heuristic matches: %d\n",
		sources[findings.SourceSignature], sources[findings.SourceHeuristic])

	return b.String()
}

// summaryPrompt returns a user message asking the LLM to produce an executive
// summary of all explained findings.
func summaryPrompt(explanations []FindingExplanation) string {
	var b strings.Builder
	b.WriteString("Based on these security findings, provide a 2-3 sentence executive summary ")
	b.WriteString("of the overall risk posture of this agent skill, extension, or MCP server. ")
	b.WriteString("Highlight the most critical issues.\n\n")
	for _, e := range explanations {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", e.RuleID, e.Title, e.Explanation)
	}
	b.WriteString("\nRespond with ONLY the summary text, no JSON.")
	return b.String()
}
