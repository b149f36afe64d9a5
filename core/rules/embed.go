package rules

import (
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"
)

//go:embed data/default.yaml
var defaultRulesYAML []byte

// LoadDefault parses the built-in rule corpus embedded in the binary. It
// fails only on a malformed YAML document; individual bad rule records are
// skipped per the same semantics as LoadFile.
func LoadDefault(logger *slog.Logger) (*RuleSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var rf ruleFile
	if err := yaml.Unmarshal(defaultRulesYAML, &rf); err != nil {
		return nil, fmt.Errorf("rules: parse embedded default corpus: %w", err)
	}

	rs := NewRuleSet()
	for i, rec := range rf.Rules {
		r, ok := compileRecord(rec, logger, "<embedded default>", i)
		if !ok {
			continue
		}
		rs.Add(r)
	}
	return rs, nil
}
