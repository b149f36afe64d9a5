// Package sarif generates SARIF 2.1.0 reports from findings.
//
// The Static Analysis Results Interchange Format (SARIF) is an OASIS standard
// for the output of static analysis tools. This package produces SARIF v2.1.0
// documents that are compatible with GitHub Code Scanning, Azure DevOps, and
// other SARIF consumers.
package sarif

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/rules"
)

const (
	// sarifVersion is the SARIF specification version produced by this reporter.
	sarifVersion = "2.1.0"

	// sarifSchema is the JSON schema URI for SARIF 2.1.0.
	sarifSchema = "https://docs.oasis-open.org/sarif/sarif/v2.1.0/errata01/os/schemas/sarif-schema-2.1.0.json"

	// toolName is the name of the tool embedded in the SARIF driver.
	toolName = "vetra"

	// informationURI is the project URL embedded in the SARIF driver.
	informationURI = "https://github.com/vetra-sec/vetra"
)

// ---------------------------------------------------------------------------
// SARIF 2.1.0 envelope types
// ---------------------------------------------------------------------------

// Report is the top-level SARIF document containing the schema version
// and one or more analysis runs.
type Report struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of an analysis tool.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool that produced the run.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains identifying information about the tool and the catalog of
// rules it can report on.
type Driver struct {
	Name           string                `json:"name"`
	Version        string                `json:"version"`
	InformationURI string                `json:"informationUri"`
	Rules          []ReportingDescriptor `json:"rules"`
}

// ReportingDescriptor defines a single rule in the SARIF rule catalog.
type ReportingDescriptor struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	ShortDescription     Message       `json:"shortDescription"`
	DefaultConfiguration Configuration `json:"defaultConfiguration"`
}

// Configuration holds the default severity level for a rule.
type Configuration struct {
	Level string `json:"level"`
}

// Message is a SARIF message object containing human-readable text.
type Message struct {
	Text string `json:"text"`
}

// Result is a single finding expressed in SARIF format.
type Result struct {
	RuleID       string            `json:"ruleId"`
	RuleIndex    int               `json:"ruleIndex"`
	Level        string            `json:"level"`
	Message      Message           `json:"message"`
	Locations    []Location        `json:"locations"`
	Fingerprints map[string]string `json:"fingerprints"`
}

// Location wraps a physical location within a source artifact.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation identifies a file and region within that file.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation is a URI reference to a source file, or a virtual MCP
// path when the finding originated from an MCP-virtualized content item.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region identifies a contiguous area within an artifact.
type Region struct {
	StartLine int `json:"startLine,omitempty"`
}

// ---------------------------------------------------------------------------
// Reporter implementation
// ---------------------------------------------------------------------------

// Reporter produces SARIF 2.1.0 documents from a slice of findings.
type Reporter struct {
	// ToolVersion is the version string embedded in the SARIF tool driver.
	ToolVersion string

	// Rules is an optional RuleSet used to populate the SARIF rule catalog.
	// When nil, the catalog is derived from the findings themselves.
	Rules *rules.RuleSet
}

// NewReporter returns a Reporter configured with the given tool
// version and optional rule set. The rule set may be nil.
func NewReporter(version string, ruleSet *rules.RuleSet) *Reporter {
	return &Reporter{
		ToolVersion: version,
		Rules:       ruleSet,
	}
}

// Generate builds a complete SARIF 2.1.0 JSON document from the given
// findings. Findings are sorted deterministically before serialization to
// guarantee reproducible output. The returned bytes are pretty-printed JSON.
func (r *Reporter) Generate(items []findings.Finding) ([]byte, error) {
	fs := findings.NewFindingSet()
	fs.AddAll(items)
	fs.SortDeterministic()
	sorted := fs.Findings()

	ruleCatalog, ruleIndex := r.buildRuleCatalog(sorted)

	results := make([]Result, 0, len(sorted))
	for _, f := range sorted {
		idx, ok := ruleIndex[f.RuleID]
		if !ok {
			idx = 0
		}

		results = append(results, Result{
			RuleID:    f.RuleID,
			RuleIndex: idx,
			Level:     severityToLevel(f.Severity),
			Message:   Message{Text: f.Message},
			Locations: []Location{
				{
					PhysicalLocation: PhysicalLocation{
						ArtifactLocation: ArtifactLocation{URI: f.File},
						Region:           Region{StartLine: f.Line},
					},
				},
			},
			Fingerprints: map[string]string{
				"vetra/v1": f.Fingerprint,
			},
		})
	}

	report := Report{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:           toolName,
						Version:        r.ToolVersion,
						InformationURI: informationURI,
						Rules:          ruleCatalog,
					},
				},
				Results: results,
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// WriteToFile generates the SARIF report and writes it to the specified path
// with 0644 permissions. Parent directories must already exist.
func (r *Reporter) WriteToFile(items []findings.Finding, path string) error {
	data, err := r.Generate(items)
	if err != nil {
		return fmt.Errorf("sarif: generate report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// severityToLevel maps a vetra severity to the corresponding SARIF level
// string. Critical and high map to "error", medium to "warning", and low
// to "note".
func severityToLevel(s findings.Severity) string {
	switch s {
	case findings.SeverityCritical, findings.SeverityHigh:
		return "error"
	case findings.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// buildRuleCatalog constructs the SARIF rules array and a map from rule ID to
// its index within that array. When the reporter has a RuleSet, the catalog is
// populated from it. Otherwise the catalog is derived from the unique rule IDs
// found in the given findings slice.
func (r *Reporter) buildRuleCatalog(items []findings.Finding) ([]ReportingDescriptor, map[string]int) {
	if r.Rules != nil {
		return r.buildCatalogFromRuleSet()
	}
	return r.buildCatalogFromFindings(items)
}

// buildCatalogFromRuleSet creates catalog entries for every rule in the
// RuleSet, sorted by rule ID for deterministic output.
func (r *Reporter) buildCatalogFromRuleSet() ([]ReportingDescriptor, map[string]int) {
	allRules := r.Rules.Rules()

	sorted := make([]rules.Rule, len(allRules))
	copy(sorted, allRules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	catalog := make([]ReportingDescriptor, 0, len(sorted))
	index := make(map[string]int, len(sorted))

	for i := range sorted {
		rule := &sorted[i]
		idx := len(catalog)
		index[rule.ID] = idx

		catalog = append(catalog, ReportingDescriptor{
			ID:   rule.ID,
			Name: rule.ID,
			ShortDescription: Message{
				Text: rule.Description,
			},
			DefaultConfiguration: Configuration{
				Level: severityToLevel(findings.Severity(rule.Severity)),
			},
		})
	}

	return catalog, index
}

// buildCatalogFromFindings creates minimal catalog entries derived from the
// unique rule IDs in the findings. The entries are sorted by rule ID.
func (r *Reporter) buildCatalogFromFindings(items []findings.Finding) ([]ReportingDescriptor, map[string]int) {
	type ruleInfo struct {
		id       string
		severity findings.Severity
		message  string
	}

	seen := make(map[string]struct{})
	var unique []ruleInfo

	for _, f := range items {
		if _, exists := seen[f.RuleID]; exists {
			continue
		}
		seen[f.RuleID] = struct{}{}
		unique = append(unique, ruleInfo{
			id:       f.RuleID,
			severity: f.Severity,
			message:  f.Message,
		})
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].id < unique[j].id
	})

	catalog := make([]ReportingDescriptor, 0, len(unique))
	index := make(map[string]int, len(unique))

	for _, ri := range unique {
		idx := len(catalog)
		index[ri.id] = idx
		catalog = append(catalog, ReportingDescriptor{
			ID:   ri.id,
			Name: ri.id,
			ShortDescription: Message{
				Text: ri.message,
			},
			DefaultConfiguration: Configuration{
				Level: severityToLevel(ri.severity),
			},
		})
	}

	return catalog, index
}
