package tui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// sourceLine is one line of context shown in the detail view.
type sourceLine struct {
	Number  int
	Text    string
	IsMatch bool
}

// readContext returns up to 2*contextLines+1 lines of path centered on
// line (1-indexed). It returns nil if the file cannot be read — common for
// mcp:// virtual paths, which the detail view renders without source
// context.
func readContext(path string, line, contextLines int) []sourceLine {
	if line <= 0 || strings.Contains(path, "://") {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var all []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		all = append(all, scanner.Text())
	}

	start := line - contextLines
	if start < 1 {
		start = 1
	}
	end := line + contextLines
	if end > len(all) {
		end = len(all)
	}

	var out []sourceLine
	for n := start; n <= end; n++ {
		out = append(out, sourceLine{Number: n, Text: all[n-1], IsMatch: n == line})
	}
	return out
}

// renderDetail renders the detail view for a single finding.
func renderDetail(m *Model) string {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return "No finding selected."
	}

	f := m.filtered[m.cursor]

	var b strings.Builder

	sevBadge := severityStyle(f.Severity).Render(strings.ToUpper(string(f.Severity)))
	b.WriteString(fmt.Sprintf(" %s · %s · %s\n",
		ruleIDStyle.Render(f.RuleID),
		f.Message,
		sevBadge))
	b.WriteString(headerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	fileLoc := f.File
	if f.Line > 0 {
		fileLoc = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	b.WriteString(" " + fileStyle.Render(fileLoc) + "\n\n")

	for _, line := range readContext(f.File, f.Line, m.contextLines) {
		prefix := "  "
		text := line.Text
		if line.IsMatch {
			prefix = matchLineStyle.Render("→ ")
			text = matchLineStyle.Render(text)
		}
		lineNum := subtleStyle.Render(fmt.Sprintf("%4d │ ", line.Number))
		b.WriteString(prefix + lineNum + text + "\n")
	}
	b.WriteString("\n")

	if f.Category != "" {
		b.WriteString(" " + cweStyle.Render("Category: "+f.Category) + "\n\n")
	}

	if f.Remediation != "" {
		b.WriteString(" " + remediationHeaderStyle.Render("Remediation") + "\n")
		b.WriteString(wrapText(f.Remediation, m.width-4, "   "))
		b.WriteString("\n")
	}

	if f.Confidence > 0 {
		b.WriteString(" " + subtleStyle.Render(fmt.Sprintf("confidence: %.2f  source: %s", f.Confidence, f.Source)) + "\n\n")
	}

	b.WriteString(helpStyle.Render(" esc back  n/p next/prev  q quit"))
	b.WriteString("\n")

	return b.String()
}

// wrapText wraps text at the given width with the given indent prefix.
func wrapText(text string, width int, indent string) string {
	if width <= 0 {
		width = 78
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(indent)
	lineLen := len(indent)

	for i, word := range words {
		if i > 0 && lineLen+1+len(word) > width {
			b.WriteString("\n" + indent)
			lineLen = len(indent)
		} else if i > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	b.WriteString("\n")
	return b.String()
}
