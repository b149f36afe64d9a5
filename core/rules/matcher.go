package rules

import (
	"regexp"
	"sort"

	"github.com/vetra-sec/vetra/core/findings"
)

// maxFindingsPerRulePerFile is the per-file, per-rule cap from spec §4.3:
// a rule's further matches beyond this count are dropped, not merely
// truncated from the report.
const maxFindingsPerRulePerFile = 20

// lineIndex supports byte-offset-to-line-number lookup via binary search
// over cumulative line-start offsets, per spec §4.3 step 2.
type lineIndex struct {
	starts []int
}

// buildLineIndex scans content once and records the byte offset where each
// line begins, including an implicit first line starting at offset 0.
func buildLineIndex(content string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{starts: starts}
}

// locate returns the 1-indexed line number and 1-indexed column for byte
// offset, via binary search over the cumulative line-start index.
func (li lineIndex) locate(offset int) (line, col int) {
	n := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset })
	return n, offset - li.starts[n-1] + 1
}

// lineText returns the full text of the given 1-indexed line within
// content, without its trailing newline.
func (li lineIndex) lineText(content string, line int) string {
	if line < 1 || line > len(li.starts) {
		return ""
	}
	start := li.starts[line-1]
	end := len(content)
	if line < len(li.starts) {
		end = li.starts[line] - 1 // exclude the newline itself
	}
	if start > end || start > len(content) {
		return ""
	}
	if end > len(content) {
		end = len(content)
	}
	return content[start:end]
}

// Match applies every rule indexed for fileType to content, returning
// signature findings per the algorithm in spec §4.3. virtualPath becomes
// Finding.File.
func Match(engine *Engine, content, virtualPath, fileType string) []findings.Finding {
	applicable := engine.RulesFor(fileType)
	if len(applicable) == 0 {
		return nil
	}

	li := buildLineIndex(content)
	var out []findings.Finding

	for _, rule := range applicable {
		emitted := 0
		for _, pattern := range rule.Compiled {
			if emitted >= maxFindingsPerRulePerFile {
				break
			}
			locs := pattern.FindAllStringIndex(content, -1)
			for _, loc := range locs {
				if emitted >= maxFindingsPerRulePerFile {
					break
				}
				start, end := loc[0], loc[1]
				if start == end {
					continue // zero-width match, per spec §4.3 step 3
				}
				matchText := content[start:end]
				if excludedByAny(rule.ExcludePatterns, matchText) {
					continue
				}

				line, col := li.locate(start)
				out = append(out, findings.Finding{
					RuleID:      rule.ID,
					Severity:    findings.Severity(rule.Severity),
					Category:    rule.Category,
					Source:      findings.SourceSignature,
					Message:     rule.Description,
					Remediation: rule.Remediation,
					File:        virtualPath,
					Line:        line,
					Column:      col,
					MatchText:   matchText,
					LineText:    li.lineText(content, line),
				})
				emitted++
			}
		}
	}
	return out
}

// excludedByAny reports whether matchText matches any of the rule's
// exclude_patterns, per spec §4.3 step 3.
func excludedByAny(excludes []*regexp.Regexp, matchText string) bool {
	for _, re := range excludes {
		if re.MatchString(matchText) {
			return true
		}
	}
	return false
}
