// Package meta implements the layer that runs after scanning: inline
// suppression filtering, de-duplication, confidence scoring, and
// minimum-confidence threshold filtering, per spec §4.8.
package meta

import (
	"regexp"
	"strings"
	"time"
)

// directiveRE matches a vetra:ignore directive in any of the common
// single-line comment styles. It is evaluated against Finding.LineText, so
// it only recognizes directives trailing the offending line itself —
// unlike the teacher's original implementation, the meta-analyzer runs
// after scanning against the aggregated Finding stream, not the raw file,
// so it cannot look ahead to "the next non-blank line" the way a
// line-oriented pre-scan can.
var directiveRE = regexp.MustCompile(
	`(?://|#|--|/\*|<!--)\s*vetra:ignore\s+([\w-]+(?:,[\w-]+)*)\s*(?:--\s*(.*))?`,
)

var expiresRE = regexp.MustCompile(`expires:(\d{4}-\d{2}-\d{2})`)

// suppressed reports whether lineText carries a vetra:ignore directive
// naming ruleID, and that directive has not expired as of now.
func suppressed(lineText, ruleID string, now time.Time) bool {
	match := directiveRE.FindStringSubmatch(lineText)
	if match == nil {
		return false
	}

	ids := strings.Split(match[1], ",")
	found := false
	for _, id := range ids {
		if strings.TrimSpace(id) == ruleID {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	if em := expiresRE.FindStringSubmatch(match[2]); em != nil {
		if t, err := time.Parse("2006-01-02", em[1]); err == nil && now.After(t) {
			return false
		}
	}
	return true
}
