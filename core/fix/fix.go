// Package fix implements the narrow "comment-out" remediation mode of
// spec §4.11: for signature findings on an allow-listed file type, insert
// a language-appropriate line-comment prefix on the matched line. It never
// touches heuristic findings, and never rewrites JSON.
package fix

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// commentPrefix maps the file types fix mode is allowed to touch to their
// line-comment token, per spec §4.11's allowlist (markdown/config text,
// shell, Python, JS/TS — explicitly not JSON).
var commentPrefix = map[content.FileType]string{
	content.Markdown:   "# ",
	content.Bash:       "# ",
	content.Python:     "# ",
	content.JavaScript: "// ",
	content.TypeScript: "// ",
}

// Apply groups signature findings on fixable files by (File, Line) —
// duplicate findings on the same line produce one edit, per spec §4.11 —
// and inserts the matching comment prefix at the start of each affected
// line. Heuristic findings and unsupported file types are left untouched.
// Files are read and rewritten once each, regardless of how many lines
// within them are edited.
func Apply(items []findings.Finding) error {
	linesByFile := make(map[string]map[int]bool)

	for _, f := range items {
		if f.Source != findings.SourceSignature {
			continue
		}
		if f.Line <= 0 {
			continue
		}
		if _, ok := commentPrefix[content.DetectFileType(f.File)]; !ok {
			continue
		}
		if linesByFile[f.File] == nil {
			linesByFile[f.File] = make(map[int]bool)
		}
		linesByFile[f.File][f.Line] = true
	}

	for file, lineSet := range linesByFile {
		prefix := commentPrefix[content.DetectFileType(file)]
		if err := commentLines(file, lineSet, prefix); err != nil {
			return fmt.Errorf("fix: %s: %w", file, err)
		}
	}
	return nil
}

// commentLines rewrites path, inserting prefix at the start of every line
// number present (1-indexed) in lineSet.
func commentLines(path string, lineSet map[int]bool, prefix string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.Split(string(data), "\n")
	nums := make([]int, 0, len(lineSet))
	for n := range lineSet {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	for _, n := range nums {
		idx := n - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		if strings.HasPrefix(lines[idx], prefix) {
			continue // already commented by an earlier pass
		}
		lines[idx] = prefix + lines[idx]
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
