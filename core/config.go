// Package core wires the scan orchestrator: rule compilation, content
// planning, scheduling, the meta-analyzer, and optional fix mode, per
// spec §4.10.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ScanConfig holds project-level configuration loaded from .vetra.yaml, per
// SPEC_FULL §10. An absent config file is not an error: LoadScanConfig
// returns a zero-value ScanConfig, matching the teacher's own
// absent-file-is-not-an-error contract.
type ScanConfig struct {
	Scan   ScanSettings   `yaml:"scan"`
	Output OutputSettings `yaml:"output"`
	MCP    MCPSettings    `yaml:"mcp"`
}

// RulesConfig allows disabling rules or overriding their severity by ID.
type RulesConfig struct {
	Disable          []string          `yaml:"disable"`
	SeverityOverride map[string]string `yaml:"severity_override"`
}

// ScanSettings controls scan-wide behavior: the rule corpus, concurrency,
// behavioral heuristics, confidence floor, and cache TTL.
type ScanSettings struct {
	RulesDir      string        `yaml:"rules_dir"`
	Rules         RulesConfig   `yaml:"rules"`
	Concurrency   int           `yaml:"concurrency"`
	UseBehavioral bool          `yaml:"use_behavioral"`
	MinConfidence *float64      `yaml:"min_confidence"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	FailOn        string        `yaml:"fail_on"`
}

// OutputSettings controls default output format and directory.
type OutputSettings struct {
	Format    string `yaml:"format"`
	Directory string `yaml:"directory"`
}

// MCPSettings controls default behavior for MCP target collection.
type MCPSettings struct {
	ReadResources bool     `yaml:"read_resources"`
	Scope         []string `yaml:"scope"`
}

// LoadScanConfig reads .vetra.yaml from root and returns the parsed config.
// If the file does not exist, a zero-value ScanConfig is returned with no
// error, matching the absent-config contract the rest of the scan pipeline
// relies on.
func LoadScanConfig(root string) (*ScanConfig, error) {
	path := filepath.Join(root, ".vetra.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ScanConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg ScanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}
