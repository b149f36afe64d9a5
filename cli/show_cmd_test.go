package main

import (
	"testing"

	"github.com/vetra-sec/vetra/core/findings"
)

func sampleShowFindings() []findings.Finding {
	return []findings.Finding{
		{RuleID: "SEC-001", Severity: findings.SeverityHigh, File: "a.env"},
		{RuleID: "HEURISTIC_HIGH_ENTROPY_SECRET", Severity: findings.SeverityMedium, File: "b.py"},
		{RuleID: "WRITE_FS_OUTSIDE_SANDBOX", Severity: findings.SeverityLow, File: "c.py"},
	}
}

func TestFilterFindings_NoFilter(t *testing.T) {
	got := filterFindings(sampleShowFindings(), "", "")
	if len(got) != 3 {
		t.Fatalf("expected 3 findings with no filter, got %d", len(got))
	}
}

func TestFilterFindings_BySeverity(t *testing.T) {
	got := filterFindings(sampleShowFindings(), "high,low", "")
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	for _, f := range got {
		if f.Severity != findings.SeverityHigh && f.Severity != findings.SeverityLow {
			t.Fatalf("unexpected severity in filtered results: %s", f.Severity)
		}
	}
}

func TestFilterFindings_ByRulePrefix(t *testing.T) {
	got := filterFindings(sampleShowFindings(), "", "HEURISTIC_")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
	if got[0].RuleID != "HEURISTIC_HIGH_ENTROPY_SECRET" {
		t.Fatalf("unexpected rule ID: %s", got[0].RuleID)
	}
}

func TestFilterFindings_CombinedFilters(t *testing.T) {
	got := filterFindings(sampleShowFindings(), "low", "WRITE_")
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(got))
	}
}

func TestFilterFindings_NoMatches(t *testing.T) {
	got := filterFindings(sampleShowFindings(), "critical", "")
	if len(got) != 0 {
		t.Fatalf("expected 0 findings, got %d", len(got))
	}
}

func TestLoadStoredRecord_MissingStore(t *testing.T) {
	t.Setenv("VETRA_HOME", t.TempDir())
	if _, err := loadStoredRecord("latest"); err == nil {
		t.Fatal("expected an error loading from an empty store")
	}
}

func TestLoadStoredRecord_UnknownID(t *testing.T) {
	t.Setenv("VETRA_HOME", t.TempDir())
	if _, err := loadStoredRecord("does-not-exist"); err == nil {
		t.Fatal("expected an error for an unknown scan id")
	}
}

func TestIsShowBoolFlag(t *testing.T) {
	if !isShowBoolFlag("-json") {
		t.Fatal("expected -json to be a bool flag")
	}
	if isShowBoolFlag("-severity") {
		t.Fatal("expected -severity to not be a bool flag")
	}
}
