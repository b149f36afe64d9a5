package sarif

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/rules"
)

// sampleFindings returns findings added in reverse rule-ID order so tests
// can verify deterministic sorting.
func sampleFindings() []findings.Finding {
	return []findings.Finding{
		{RuleID: "rule-002", Severity: findings.SeverityMedium, File: "pkg/auth/handler.go", Line: 42, Message: "Insecure comparison of secret token"},
		{RuleID: "rule-001", Severity: findings.SeverityHigh, File: "cmd/server/main.go", Line: 15, Message: "Hardcoded credential detected"},
	}
}

// sampleRuleSet returns a RuleSet with two compiled rules matching the
// sample findings.
func sampleRuleSet() *rules.RuleSet {
	rs := rules.NewRuleSet()
	rs.Add(rules.Rule{
		ID:          "rule-001",
		Category:    "secrets",
		Severity:    "HIGH",
		FileTypes:   []string{"any"},
		Description: "Detects hardcoded credentials in source files",
		Compiled:    []*regexp.Regexp{regexp.MustCompile(`(?i)(password|secret|token)\s*=\s*"[^"]{8,}"`)},
	})
	rs.Add(rules.Rule{
		ID:          "rule-002",
		Category:    "crypto",
		Severity:    "MEDIUM",
		FileTypes:   []string{"any"},
		Description: "Detects insecure comparison of secret values",
		Compiled:    []*regexp.Regexp{regexp.MustCompile(`==\s*(secret|token|password)`)},
	})
	return rs
}

func mustUnmarshal(t *testing.T, data []byte) Report {
	t.Helper()
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("failed to unmarshal SARIF report: %v", err)
	}
	return report
}

func TestGenerateProducesValidJSONWithCorrectVersion(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !json.Valid(data) {
		t.Fatal("Generate produced invalid JSON")
	}

	report := mustUnmarshal(t, data)
	if report.Version != "2.1.0" {
		t.Errorf("expected SARIF version 2.1.0, got %q", report.Version)
	}
	if report.Schema == "" {
		t.Error("expected $schema to be non-empty")
	}
}

func TestToolDriverHasCorrectNameAndVersion(t *testing.T) {
	r := NewReporter("1.2.3", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	if len(report.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(report.Runs))
	}

	driver := report.Runs[0].Tool.Driver
	if driver.Name != "vetra" {
		t.Errorf("expected driver name 'vetra', got %q", driver.Name)
	}
	if driver.Version != "1.2.3" {
		t.Errorf("expected driver version '1.2.3', got %q", driver.Version)
	}
	if driver.InformationURI == "" {
		t.Error("expected informationUri to be non-empty")
	}
}

func TestFindingsMapToCorrectSARIFLevels(t *testing.T) {
	tests := []struct {
		name     string
		severity findings.Severity
		want     string
	}{
		{"critical maps to error", findings.SeverityCritical, "error"},
		{"high maps to error", findings.SeverityHigh, "error"},
		{"medium maps to warning", findings.SeverityMedium, "warning"},
		{"low maps to note", findings.SeverityLow, "note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := severityToLevel(tt.severity)
			if got != tt.want {
				t.Errorf("severityToLevel(%q) = %q, want %q", tt.severity, got, tt.want)
			}
		})
	}
}

func TestResultsHaveCorrectLevels(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	results := report.Runs[0].Results
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	levelByRule := make(map[string]string)
	for _, res := range results {
		levelByRule[res.RuleID] = res.Level
	}
	if levelByRule["rule-001"] != "error" {
		t.Errorf("rule-001 (high severity) expected level 'error', got %q", levelByRule["rule-001"])
	}
	if levelByRule["rule-002"] != "warning" {
		t.Errorf("rule-002 (medium severity) expected level 'warning', got %q", levelByRule["rule-002"])
	}
}

func TestLocationsContainCorrectFileAndLine(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	results := report.Runs[0].Results

	var rule001Result *Result
	for i := range results {
		if results[i].RuleID == "rule-001" {
			rule001Result = &results[i]
			break
		}
	}
	if rule001Result == nil {
		t.Fatal("could not find result for rule-001")
	}
	if len(rule001Result.Locations) != 1 {
		t.Fatalf("expected 1 location, got %d", len(rule001Result.Locations))
	}

	loc := rule001Result.Locations[0].PhysicalLocation
	if loc.ArtifactLocation.URI != "cmd/server/main.go" {
		t.Errorf("expected URI 'cmd/server/main.go', got %q", loc.ArtifactLocation.URI)
	}
	if loc.Region.StartLine != 15 {
		t.Errorf("expected StartLine 15, got %d", loc.Region.StartLine)
	}
}

func TestFingerprintsAreIncludedInResults(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	for _, res := range report.Runs[0].Results {
		if res.Fingerprints == nil {
			t.Errorf("result for %s has nil fingerprints map", res.RuleID)
			continue
		}
		fp, ok := res.Fingerprints["vetra/v1"]
		if !ok {
			t.Errorf("result for %s missing 'vetra/v1' fingerprint key", res.RuleID)
			continue
		}
		if fp == "" {
			t.Errorf("result for %s has empty fingerprint value", res.RuleID)
		}
	}
}

func TestRuleCatalogPopulatedFromRuleSet(t *testing.T) {
	rs := sampleRuleSet()
	r := NewReporter("0.1.0", rs)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	driver := report.Runs[0].Tool.Driver
	if len(driver.Rules) != 2 {
		t.Fatalf("expected 2 rules in catalog, got %d", len(driver.Rules))
	}
	if driver.Rules[0].ID != "rule-001" {
		t.Errorf("expected first rule ID 'rule-001', got %q", driver.Rules[0].ID)
	}
	if driver.Rules[1].ID != "rule-002" {
		t.Errorf("expected second rule ID 'rule-002', got %q", driver.Rules[1].ID)
	}
	if driver.Rules[0].ShortDescription.Text != "Detects hardcoded credentials in source files" {
		t.Errorf("expected rule-001 description from RuleSet, got %q", driver.Rules[0].ShortDescription.Text)
	}
	if driver.Rules[0].DefaultConfiguration.Level != "error" {
		t.Errorf("expected rule-001 default level 'error', got %q", driver.Rules[0].DefaultConfiguration.Level)
	}
	if driver.Rules[1].DefaultConfiguration.Level != "warning" {
		t.Errorf("expected rule-002 default level 'warning', got %q", driver.Rules[1].DefaultConfiguration.Level)
	}
}

func TestRuleCatalogFromFindingsWhenNoRuleSet(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	driver := report.Runs[0].Tool.Driver
	if len(driver.Rules) != 2 {
		t.Fatalf("expected 2 rules in catalog, got %d", len(driver.Rules))
	}
	if driver.Rules[0].ID != "rule-001" {
		t.Errorf("expected first rule 'rule-001', got %q", driver.Rules[0].ID)
	}
	if driver.Rules[1].ID != "rule-002" {
		t.Errorf("expected second rule 'rule-002', got %q", driver.Rules[1].ID)
	}
}

func TestRuleIndexInResultsMatchesCatalog(t *testing.T) {
	rs := sampleRuleSet()
	r := NewReporter("0.1.0", rs)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	driver := report.Runs[0].Tool.Driver
	results := report.Runs[0].Results

	catalogIndex := make(map[string]int)
	for i, rd := range driver.Rules {
		catalogIndex[rd.ID] = i
	}
	for _, res := range results {
		expected, ok := catalogIndex[res.RuleID]
		if !ok {
			t.Errorf("result references rule %q not in catalog", res.RuleID)
			continue
		}
		if res.RuleIndex != expected {
			t.Errorf("result for %s has ruleIndex %d, expected %d", res.RuleID, res.RuleIndex, expected)
		}
	}
}

func TestEmptyFindingsProducesValidSARIF(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !json.Valid(data) {
		t.Fatal("Generate produced invalid JSON for empty findings")
	}

	report := mustUnmarshal(t, data)
	if report.Version != "2.1.0" {
		t.Errorf("expected version 2.1.0, got %q", report.Version)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(report.Runs))
	}
	if len(report.Runs[0].Results) != 0 {
		t.Errorf("expected 0 results, got %d", len(report.Runs[0].Results))
	}
	if len(report.Runs[0].Tool.Driver.Rules) != 0 {
		t.Errorf("expected 0 rules for empty findings, got %d", len(report.Runs[0].Tool.Driver.Rules))
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data1, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("first Generate returned error: %v", err)
	}
	data2, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("second Generate returned error: %v", err)
	}
	if string(data1) != string(data2) {
		t.Errorf("outputs are not deterministic:\n  first:  %s\n  second: %s", data1, data2)
	}
}

func TestGenerateSortsFindingsDeterministically(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	results := report.Runs[0].Results
	if len(results) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(results))
	}
	if results[0].RuleID != "rule-001" {
		t.Errorf("expected first result rule-001, got %q", results[0].RuleID)
	}
	if results[1].RuleID != "rule-002" {
		t.Errorf("expected second result rule-002, got %q", results[1].RuleID)
	}
}

func TestWriteToFileCreatesValidSARIFFile(t *testing.T) {
	r := NewReporter("0.1.0", nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "report.sarif")

	if err := r.WriteToFile(sampleFindings(), path); err != nil {
		t.Fatalf("WriteToFile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read written file: %v", err)
	}

	report := mustUnmarshal(t, data)
	if report.Version != "2.1.0" {
		t.Errorf("expected version 2.1.0 in file, got %q", report.Version)
	}
	if len(report.Runs[0].Results) != 2 {
		t.Errorf("expected 2 results in file, got %d", len(report.Runs[0].Results))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("could not stat written file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0644 {
		t.Errorf("expected file permissions 0644, got %04o", perm)
	}
}

func TestSeverityToLevelUnknownSeverity(t *testing.T) {
	got := severityToLevel(findings.Severity("unknown"))
	if got != "note" {
		t.Errorf("severityToLevel(unknown) = %q, want 'note'", got)
	}
}

func TestResultMessageMatchesFindingMessage(t *testing.T) {
	r := NewReporter("0.1.0", nil)

	data, err := r.Generate(sampleFindings())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	report := mustUnmarshal(t, data)
	messageByRule := make(map[string]string)
	for _, res := range report.Runs[0].Results {
		messageByRule[res.RuleID] = res.Message.Text
	}
	if messageByRule["rule-001"] != "Hardcoded credential detected" {
		t.Errorf("unexpected message for rule-001: %q", messageByRule["rule-001"])
	}
	if messageByRule["rule-002"] != "Insecure comparison of secret token" {
		t.Errorf("unexpected message for rule-002: %q", messageByRule["rule-002"])
	}
}
