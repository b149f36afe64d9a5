package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleRecord is the raw YAML shape of a single rule entry, before
// validation and pattern compilation.
type ruleRecord struct {
	ID              string            `yaml:"id"`
	Category        string            `yaml:"category"`
	Severity        string            `yaml:"severity"`
	Patterns        []string          `yaml:"patterns"`
	FileTypes       []string          `yaml:"file_types"`
	ExcludePatterns []string          `yaml:"exclude_patterns"`
	Description     string            `yaml:"description"`
	Remediation     string            `yaml:"remediation"`
	Tags            []string          `yaml:"tags"`
	Metadata        map[string]string `yaml:"metadata"`
}

// ruleFile is the top-level shape of a rules YAML document: a sequence of
// rule records under a single "rules" key.
type ruleFile struct {
	Rules []ruleRecord `yaml:"rules"`
}

// inlineCaseInsensitive is the PCRE-style inline flag the compiler strips
// and folds into regexp.MustCompile's "(?i)" prefix form, per spec §4.1.
const inlineCaseInsensitive = "(?i)"

// LoadFile reads a single YAML rules document and returns a compiled
// RuleSet. A rule missing any mandatory field, or left with zero surviving
// patterns after compilation, is skipped and logged at warn level; it never
// fails the whole load. Only a malformed YAML document or unreadable file
// returns an error.
func LoadFile(path string, logger *slog.Logger) (*RuleSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}

	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}

	rs := NewRuleSet()
	for i, rec := range rf.Rules {
		r, ok := compileRecord(rec, logger, path, i)
		if !ok {
			continue
		}
		rs.Add(r)
	}
	return rs, nil
}

// LoadDir reads every .yaml/.yml file directly inside dir, in lexicographic
// order, and merges the results into one RuleSet.
func LoadDir(dir string, logger *slog.Logger) (*RuleSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("rules: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	rs := NewRuleSet()
	for _, name := range names {
		fileRS, err := LoadFile(filepath.Join(dir, name), logger)
		if err != nil {
			return nil, err
		}
		for _, r := range fileRS.Rules() {
			rs.Add(r)
		}
	}
	return rs, nil
}

// compileRecord validates and compiles a single rule record. The second
// return is false when the rule must be dropped (missing mandatory field or
// no surviving compiled pattern); the caller logs nothing further since
// compileRecord already logged the reason.
func compileRecord(rec ruleRecord, logger *slog.Logger, source string, index int) (Rule, bool) {
	if rec.ID == "" || rec.Category == "" || rec.Severity == "" || len(rec.Patterns) == 0 || len(rec.FileTypes) == 0 {
		logger.Warn("rules: skipping rule missing mandatory field",
			"source", source, "index", index, "id", rec.ID)
		return Rule{}, false
	}

	var compiled []*regexp.Regexp
	for _, pat := range rec.Patterns {
		re, err := compilePattern(pat)
		if err != nil {
			logger.Warn("rules: dropping uncompilable pattern",
				"rule_id", rec.ID, "pattern", pat, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	if len(compiled) == 0 {
		logger.Warn("rules: dropping rule with no surviving patterns", "rule_id", rec.ID)
		return Rule{}, false
	}

	var excludes []*regexp.Regexp
	for _, pat := range rec.ExcludePatterns {
		re, err := compilePattern(pat)
		if err != nil {
			logger.Warn("rules: dropping uncompilable exclude_pattern",
				"rule_id", rec.ID, "pattern", pat, "error", err)
			continue
		}
		excludes = append(excludes, re)
	}

	return Rule{
		ID:              rec.ID,
		Category:        rec.Category,
		Severity:        strings.ToUpper(rec.Severity),
		FileTypes:       rec.FileTypes,
		ExcludePatterns: excludes,
		Description:     rec.Description,
		Remediation:     rec.Remediation,
		Tags:            rec.Tags,
		Metadata:        rec.Metadata,
		Compiled:        compiled,
	}, true
}

// compilePattern strips every occurrence of the (?i) inline token and
// compiles with Go's native case-insensitive prefix when present, per the
// normalization rules in spec §4.1. regexp.Compile already returns matchers
// that permit multiple disjoint matches per input via FindAllIndex, so no
// further flag handling is required for "global scan" semantics.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	caseInsensitive := strings.Contains(pattern, inlineCaseInsensitive)
	stripped := strings.ReplaceAll(pattern, inlineCaseInsensitive, "")

	if caseInsensitive {
		stripped = "(?i)" + stripped
	}
	return regexp.Compile(stripped)
}
