// Package report serializes a completed scan to the stable JSON shape
// consumed by CI pipelines and dashboards.
package report

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// Summary holds the headline counters for one scan.
type Summary struct {
	ScannedFiles int                       `json:"scanned_files"`
	ElapsedMS    int64                     `json:"elapsed_ms"`
	FindingCount int                       `json:"finding_count"`
	Severities   map[findings.Severity]int `json:"severities"`
}

// RuleCount aggregates findings by rule for the detected.rules array.
type RuleCount struct {
	RuleID   string            `json:"rule_id"`
	Severity findings.Severity `json:"severity"`
	Category string            `json:"category,omitempty"`
	Source   findings.Source   `json:"source,omitempty"`
	Count    int               `json:"count"`
}

// CategoryCount aggregates findings by category for the detected.categories array.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// MCPObjectCounts breaks down the virtualized MCP object types included in
// this scan's content plan.
type MCPObjectCounts struct {
	Tools        int `json:"tools"`
	Prompts      int `json:"prompts"`
	Resources    int `json:"resources"`
	Instructions int `json:"instructions"`
}

// MCPSummary is present only when at least one target was an MCP server.
type MCPSummary struct {
	Servers int             `json:"servers"`
	Objects MCPObjectCounts `json:"objects"`
}

// Detected groups the shape of what a scan found, independent of the raw
// finding list.
type Detected struct {
	TargetKinds []string        `json:"target_kinds"`
	Sources     []string        `json:"sources"`
	Rules       []RuleCount     `json:"rules"`
	Categories  []CategoryCount `json:"categories"`
	MCP         *MCPSummary     `json:"mcp,omitempty"`
}

// JSONReport is the top-level structure written to disk and consumed by
// downstream tooling.
type JSONReport struct {
	Summary  Summary            `json:"summary"`
	Detected Detected           `json:"detected"`
	Targets  []content.Target   `json:"targets"`
	Findings []findings.Finding `json:"findings"`
}

// ScanView is the subset of the orchestrator's result the reporter needs.
// It is defined here, rather than importing the orchestrator's package
// directly, to keep report free of a dependency cycle.
type ScanView struct {
	Targets      []content.Target
	Findings     []findings.Finding
	ScannedFiles int
	ElapsedMS    int64
	MCPServers   int
	MCPObjects   MCPObjectCounts
}

// JSONReporter produces the stable JSON report shape from a ScanView.
type JSONReporter struct{}

// NewJSONReporter returns a ready-to-use JSONReporter.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

// Generate builds the report document. Findings are sorted deterministically
// first so that repeated runs over the same ScanView produce byte-identical
// output.
func (r *JSONReporter) Generate(view ScanView) ([]byte, error) {
	fs := findings.NewFindingSet()
	fs.AddAll(view.Findings)
	fs.SortDeterministic()

	f := fs.Findings()
	if f == nil {
		f = []findings.Finding{}
	}

	report := JSONReport{
		Summary: Summary{
			ScannedFiles: view.ScannedFiles,
			ElapsedMS:    view.ElapsedMS,
			FindingCount: len(f),
			Severities:   fs.CountBySeverity(),
		},
		Detected: buildDetected(f, view),
		Targets:  view.Targets,
		Findings: f,
	}
	if report.Targets == nil {
		report.Targets = []content.Target{}
	}

	return json.MarshalIndent(report, "", "  ")
}

// WriteToFile generates the report and writes it to path with 0644
// permissions. Parent directories must already exist.
func (r *JSONReporter) WriteToFile(view ScanView, path string) error {
	data, err := r.Generate(view)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func buildDetected(f []findings.Finding, view ScanView) Detected {
	kindSet := map[string]struct{}{}
	for _, t := range view.Targets {
		kindSet[string(t.Kind)] = struct{}{}
	}
	sourceSet := map[string]struct{}{}
	ruleCounts := map[string]*RuleCount{}
	var ruleOrder []string
	categoryCounts := map[string]int{}

	for _, finding := range f {
		sourceSet[string(finding.Source)] = struct{}{}

		if rc, ok := ruleCounts[finding.RuleID]; ok {
			rc.Count++
		} else {
			ruleCounts[finding.RuleID] = &RuleCount{
				RuleID:   finding.RuleID,
				Severity: finding.Severity,
				Category: finding.Category,
				Source:   finding.Source,
				Count:    1,
			}
			ruleOrder = append(ruleOrder, finding.RuleID)
		}

		if finding.Category != "" {
			categoryCounts[finding.Category]++
		}
	}

	sort.Strings(ruleOrder)
	rules := make([]RuleCount, 0, len(ruleOrder))
	for _, id := range ruleOrder {
		rules = append(rules, *ruleCounts[id])
	}

	categoryNames := make([]string, 0, len(categoryCounts))
	for c := range categoryCounts {
		categoryNames = append(categoryNames, c)
	}
	sort.Strings(categoryNames)
	categories := make([]CategoryCount, 0, len(categoryNames))
	for _, c := range categoryNames {
		categories = append(categories, CategoryCount{Category: c, Count: categoryCounts[c]})
	}

	d := Detected{
		TargetKinds: sortedKeys(kindSet),
		Sources:     sortedKeys(sourceSet),
		Rules:       rules,
		Categories:  categories,
	}
	if view.MCPServers > 0 {
		d.MCP = &MCPSummary{Servers: view.MCPServers, Objects: view.MCPObjects}
	}
	return d
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
