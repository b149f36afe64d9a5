// Package findings defines the canonical finding model produced by the
// vetra detection engine. Every signature match and heuristic analyzer
// emits Finding values, which are collected into a FindingSet for
// deduplication and downstream consumption by the meta-analyzer and
// report renderers.
package findings

import (
	"sort"
	"strconv"
)

// Severity indicates how critical a finding is. The values are ordered from
// least to most severe.
type Severity string

// Severity level constants, ordered least to most severe.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRank maps a Severity to a numeric rank where higher is more
// severe, used for ordering and threshold comparisons.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the numeric severity rank (higher is more severe). Unknown
// severities rank below SeverityLow.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast returns true if s is at least as severe as floor.
func (s Severity) AtLeast(floor Severity) bool {
	return s.Rank() >= floor.Rank()
}

// Source identifies which subsystem produced a finding.
type Source string

// Source values.
const (
	SourceSignature Source = "signature"
	SourceHeuristic Source = "heuristic"
)

// Finding is a single security observation produced by the detection
// engine. It is the canonical unit of output for the entire scan pipeline.
type Finding struct {
	RuleID      string     `json:"rule_id"`
	Severity    Severity   `json:"severity"`
	Category    string     `json:"category,omitempty"`
	Source      Source     `json:"source"`
	Message     string     `json:"message"`
	Remediation string     `json:"remediation,omitempty"`
	File        string     `json:"file"` // originating ContentItem.VirtualPath
	Line        int        `json:"line,omitempty"` // 1-indexed; 0 means "not applicable"
	Column      int        `json:"column,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"` // populated by the meta-analyzer; 0 until then
	Fingerprint string     `json:"fingerprint,omitempty"`

	// MatchText is the raw substring that triggered the finding (the
	// regex match for signature findings, the candidate token for
	// entropy findings). LineText is the full text of Line. Both are
	// populated at detection time so the meta-analyzer's confidence
	// scoring (spec §4.8) can inspect match length and comment context
	// without re-reading the originating content.
	MatchText string `json:"match_text,omitempty"`
	LineText  string `json:"line_text,omitempty"`
}

// ComputeFingerprint produces the deduplication key documented in spec §4.8:
// (rule_id, file, line_or_empty, message). Line 0 folds to the empty
// string so that findings without a line number still fingerprint
// consistently.
func ComputeFingerprint(ruleID, file string, line int, message string) string {
	lineStr := ""
	if line > 0 {
		lineStr = strconv.Itoa(line)
	}
	return ruleID + "\x00" + file + "\x00" + lineStr + "\x00" + message
}

// FindingSet is an ordered collection of findings produced by one scan.
type FindingSet struct {
	items []Finding
}

// NewFindingSet returns an empty FindingSet ready for use.
func NewFindingSet() *FindingSet {
	return &FindingSet{}
}

// Add appends a finding, computing its Fingerprint if unset.
func (fs *FindingSet) Add(f Finding) {
	if f.Fingerprint == "" {
		f.Fingerprint = ComputeFingerprint(f.RuleID, f.File, f.Line, f.Message)
	}
	fs.items = append(fs.items, f)
}

// AddAll appends every finding from other, preserving order.
func (fs *FindingSet) AddAll(other []Finding) {
	for _, f := range other {
		fs.Add(f)
	}
}

// Findings returns the current slice of findings. The caller must not
// modify the returned slice.
func (fs *FindingSet) Findings() []Finding {
	return fs.items
}

// Len returns the number of findings currently held.
func (fs *FindingSet) Len() int {
	return len(fs.items)
}

// Deduplicate removes findings sharing a Fingerprint, keeping the first
// occurrence by input order. Idempotent: calling it twice in a row leaves
// the set unchanged.
func (fs *FindingSet) Deduplicate() {
	seen := make(map[string]struct{}, len(fs.items))
	unique := make([]Finding, 0, len(fs.items))
	for _, f := range fs.items {
		if _, ok := seen[f.Fingerprint]; ok {
			continue
		}
		seen[f.Fingerprint] = struct{}{}
		unique = append(unique, f)
	}
	fs.items = unique
}

// SortDeterministic orders findings by RuleID, then File, then Line. This
// gives reproducible report output regardless of analyzer emission order;
// it does not claim any ordering guarantee across files during scanning
// (spec §5 only promises within-file ordering during the scan itself).
func (fs *FindingSet) SortDeterministic() {
	sort.Slice(fs.items, func(i, j int) bool {
		a, b := fs.items[i], fs.items[j]
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}

// FilterMinConfidence removes findings whose Confidence is below floor.
// Findings with Confidence == 0 that were never scored (source set but no
// meta pass run) are left untouched; call this only after scoring.
func (fs *FindingSet) FilterMinConfidence(floor float64) {
	kept := make([]Finding, 0, len(fs.items))
	for _, f := range fs.items {
		if f.Confidence >= floor {
			kept = append(kept, f)
		}
	}
	fs.items = kept
}

// CountBySeverity returns the number of findings at each severity level.
func (fs *FindingSet) CountBySeverity() map[Severity]int {
	counts := map[Severity]int{
		SeverityLow:      0,
		SeverityMedium:   0,
		SeverityHigh:     0,
		SeverityCritical: 0,
	}
	for _, f := range fs.items {
		counts[f.Severity]++
	}
	return counts
}
