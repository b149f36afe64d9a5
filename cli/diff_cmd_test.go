package main

import (
	"testing"
	"time"

	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/resultstore"
)

func TestResolveRecord_Latest(t *testing.T) {
	store := resultstore.New()
	store.Append(time.Unix(0, 0), nil, nil)
	id := store.Append(time.Unix(1, 0), nil, nil)

	r, ok := resolveRecord(store, "latest")
	if !ok || r.ID != id {
		t.Fatalf("expected latest record %s, got %+v (ok=%v)", id, r, ok)
	}
}

func TestResolveRecord_ByID(t *testing.T) {
	store := resultstore.New()
	id := store.Append(time.Unix(0, 0), nil, nil)

	r, ok := resolveRecord(store, id)
	if !ok || r.ID != id {
		t.Fatalf("expected record %s, got %+v (ok=%v)", id, r, ok)
	}
}

func TestPreviousRecord(t *testing.T) {
	store := resultstore.New()
	first := store.Append(time.Unix(0, 0), nil, nil)
	second := store.Append(time.Unix(1, 0), nil, nil)

	prev, ok := previousRecord(store, second)
	if !ok || prev.ID != first {
		t.Fatalf("expected previous record %s, got %+v (ok=%v)", first, prev, ok)
	}

	_, ok = previousRecord(store, first)
	if ok {
		t.Fatal("expected no previous record for the oldest entry")
	}
}

func TestRunDiff_InsufficientHistory(t *testing.T) {
	t.Setenv("VETRA_HOME", t.TempDir())
	code := runDiff(nil)
	if code != 1 {
		t.Fatalf("expected exit code 1 with fewer than two stored scans, got %d", code)
	}
}

func TestRunDiff_TwoScans(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VETRA_HOME", dir)

	path, err := resultstore.DefaultPath()
	if err != nil {
		t.Fatalf("resolving default path: %v", err)
	}
	store := resultstore.New()
	store.Append(time.Unix(0, 0), nil, []findings.Finding{
		{Fingerprint: "fp1", RuleID: "SEC-001", Severity: findings.SeverityHigh, File: "a.env"},
	})
	store.Append(time.Unix(1, 0), nil, []findings.Finding{
		{Fingerprint: "fp1", RuleID: "SEC-001", Severity: findings.SeverityHigh, File: "a.env"},
		{Fingerprint: "fp2", RuleID: "SEC-002", Severity: findings.SeverityMedium, File: "b.env"},
	})
	if err := store.Save(path); err != nil {
		t.Fatalf("saving store: %v", err)
	}

	code := runDiff([]string{"--json"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}
