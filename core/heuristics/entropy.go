// Package heuristics implements the behavioral analyzers that do not rely
// on the YAML rule corpus: entropy-based secret detection, supply-chain
// package-script analysis, extension-manifest risk analysis, and
// cross-cutting code-smell detection. Every finding produced here carries
// findings.SourceHeuristic.
package heuristics

import (
	"math"
	"strings"

	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// HighEntropySecretRuleID is the fixed heuristic identifier for entropy
// findings, since they are not backed by a rule corpus entry.
const HighEntropySecretRuleID = "HEURISTIC_HIGH_ENTROPY_SECRET"

const (
	entropyMinTokenLen  = 20
	entropyThreshold    = 4.2
	entropyTokenCap     = 2000
	entropyFindingsCap  = 10
)

// isEntropyTokenChar reports whether r belongs to the character class
// candidate tokens are drawn from, per spec §4.4.1.
func isEntropyTokenChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == '+', r == '/', r == '_', r == '=', r == '-':
		return true
	default:
		return false
	}
}

// DetectHighEntropy scans item.Content for whitespace-separated tokens at
// least entropyMinTokenLen characters long, drawn from the entropy token
// character class, and emits a finding for each whose Shannon entropy meets
// the threshold. Token extraction stops after entropyTokenCap candidates;
// emission stops after entropyFindingsCap findings.
func DetectHighEntropy(item content.Item) []findings.Finding {
	var out []findings.Finding

	tokensExamined := 0
	lineNum := 1
	for _, line := range strings.Split(item.Content, "\n") {
		for _, field := range strings.Fields(line) {
			if tokensExamined >= entropyTokenCap {
				return out
			}
			for _, token := range splitOnTokenClass(field) {
				if tokensExamined >= entropyTokenCap {
					return out
				}
				tokensExamined++

				if len(token) < entropyMinTokenLen {
					continue
				}
				if ShannonEntropy(token) < entropyThreshold {
					continue
				}

				out = append(out, findings.Finding{
					RuleID:    HighEntropySecretRuleID,
					Severity:  findings.SeverityHigh,
					Category:  "secrets",
					Source:    findings.SourceHeuristic,
					Message:   "high-entropy string resembling a secret",
					File:      item.VirtualPath,
					Line:      lineNum,
					MatchText: token,
					LineText:  line,
				})
				if len(out) >= entropyFindingsCap {
					return out
				}
			}
		}
		lineNum++
	}
	return out
}

// splitOnTokenClass splits field into maximal runs of characters in the
// entropy token class, discarding everything else. A whitespace-separated
// field like `key="AbCdEf0123456789ZZZZ",` yields the run without the
// surrounding quote/comma punctuation.
func splitOnTokenClass(field string) []string {
	var out []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}
	for _, r := range field {
		if isEntropyTokenChar(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

// ShannonEntropy computes the Shannon entropy of s in bits per character.
func ShannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[rune]int)
	for _, r := range s {
		freq[r]++
	}
	length := float64(len([]rune(s)))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
