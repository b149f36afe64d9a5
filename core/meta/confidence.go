package meta

import (
	"strings"

	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/heuristics"
)

const (
	baseConfidenceSignature = 0.80
	baseConfidenceHeuristic = 0.55

	testPathFactor    = 0.6
	commentFactor      = 0.7
	entropyThresholdRef = 4.2
	entropyScaleRange   = 1.8
	matchLenBonusDenom  = 40
	matchLenBonusMax    = 0.10
	criticalBonus       = 0.05
	lowPenalty          = 0.10
)

// testPathMarkers are the case-insensitive substrings that mark a path as
// test-adjacent, per spec §4.8.
var testPathMarkers = []string{"test", "spec", "fixture", "mock", "example"}

// Score computes f's confidence per the formula in spec §4.8. It does not
// mutate f; callers assign the result to Finding.Confidence.
func Score(f findings.Finding) float64 {
	conf := baseConfidenceSignature
	if f.Source == findings.SourceHeuristic {
		conf = baseConfidenceHeuristic
	}

	if pathLooksLikeTest(f.File) {
		conf *= testPathFactor
	}
	if lineLooksLikeComment(f.LineText) {
		conf *= commentFactor
	}

	if f.RuleID == heuristics.HighEntropySecretRuleID {
		entropy := heuristics.ShannonEntropy(f.MatchText)
		factor := clamp01((entropy - entropyThresholdRef) / entropyScaleRange)
		conf += (1 - conf) * factor
	}

	if f.Source == findings.SourceSignature && f.MatchText != "" {
		bonus := float64(len(f.MatchText)) / matchLenBonusDenom
		if bonus > 1.0 {
			bonus = 1.0
		}
		conf += bonus * matchLenBonusMax
	}

	switch f.Severity {
	case findings.SeverityCritical:
		conf += criticalBonus
	case findings.SeverityLow:
		conf -= lowPenalty
	}

	return clamp01(conf)
}

func pathLooksLikeTest(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range testPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// lineLooksLikeComment reports whether line is a single-line comment or
// opens/continues a block comment, per spec §4.8 ("line starts with //, #,
// *, or is within a /* … */ block"). Detecting "within a block comment"
// exactly requires tracking open/close state across the whole file; since
// the meta-analyzer only sees one line at a time, this recognizes the
// block-open/continuation case (a line starting with /* or *) rather than
// lines nested deep inside a multi-line block — documented as an
// intentional simplification in DESIGN.md.
func lineLooksLikeComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, prefix := range []string{"//", "#", "*", "/*"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
