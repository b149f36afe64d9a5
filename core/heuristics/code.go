package heuristics

import (
	"regexp"

	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// Fixed heuristic identifiers for code-smell findings, per spec §4.4.4.
const (
	CodeDynamicEvalRuleID       = "CODE_DYNAMIC_EVAL"
	CodeDynamicLoadRuleID       = "CODE_DYNAMIC_CODE_LOAD"
	CodeStringConcatCommandID   = "CODE_STRING_CONCAT_COMMAND"
)

type codeDetector struct {
	ruleID   string
	severity findings.Severity
	message  string
	pattern  *regexp.Regexp
}

// jsLikeDetectors apply to javascript and typescript content.
var jsLikeDetectors = []codeDetector{
	{CodeDynamicEvalRuleID, findings.SeverityMedium, "eval-like dynamic code evaluation",
		regexp.MustCompile(`\beval\s*\(|\bnew\s+Function\s*\(`)},
	{CodeDynamicLoadRuleID, findings.SeverityMedium, "dynamic module/code loading at runtime",
		regexp.MustCompile(`\brequire\s*\(\s*[a-zA-Z_$][\w.]*\s*\)|\bimport\s*\(\s*[a-zA-Z_$]`)},
	{CodeStringConcatCommandID, findings.SeverityMedium, "shell command built via string concatenation",
		regexp.MustCompile(`\b(exec|execSync|spawn)\s*\(\s*[a-zA-Z_$][\w.]*\s*\+`)},
}

// pythonDetectors apply to python content.
var pythonDetectors = []codeDetector{
	{CodeDynamicEvalRuleID, findings.SeverityMedium, "eval/exec dynamic code evaluation",
		regexp.MustCompile(`\b(eval|exec)\s*\(`)},
	{CodeDynamicLoadRuleID, findings.SeverityMedium, "dynamic import via importlib/__import__",
		regexp.MustCompile(`\bimportlib\.import_module\s*\(|\b__import__\s*\(`)},
	{CodeStringConcatCommandID, findings.SeverityMedium, "shell command built via string concatenation",
		regexp.MustCompile(`\bos\.system\s*\(\s*[a-zA-Z_][\w.]*\s*\+|\bsubprocess\.\w+\(\s*[a-zA-Z_][\w.]*\s*\+`)},
}

// bashDetectors apply to bash content.
var bashDetectors = []codeDetector{
	{CodeDynamicEvalRuleID, findings.SeverityMedium, "eval of a constructed string",
		regexp.MustCompile(`\beval\s+"?\$`)},
	{CodeStringConcatCommandID, findings.SeverityMedium, "command built from concatenated variables",
		regexp.MustCompile(`\$\{?\w+\}?"?\s*\+\s*"?\$`)},
}

// AnalyzeCode implements spec §4.4.4: a short list of cross-cutting
// detectors over javascript/typescript/python/bash content, independent of
// the YAML rule corpus.
func AnalyzeCode(item content.Item) []findings.Finding {
	var detectors []codeDetector
	switch item.FileType {
	case content.JavaScript, content.TypeScript:
		detectors = jsLikeDetectors
	case content.Python:
		detectors = pythonDetectors
	case content.Bash:
		detectors = bashDetectors
	default:
		return nil
	}

	var out []findings.Finding
	for _, d := range detectors {
		if d.pattern.MatchString(item.Content) {
			out = append(out, findings.Finding{
				RuleID:   d.ruleID,
				Severity: d.severity,
				Category: "code-smell",
				Source:   findings.SourceHeuristic,
				Message:  d.message,
				File:     item.VirtualPath,
			})
		}
	}
	return out
}
