package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/vetra-sec/vetra/core/resultstore"
)

// runDiff implements the "vetra diff" command: compare two stored scans by
// finding fingerprint and report what changed.
func runDiff(args []string) int {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	var (
		baseID     string
		headID     string
		jsonOutput bool
	)
	fs.StringVar(&baseID, "base", "", "scan id to diff from (defaults to the second-most-recent scan)")
	fs.StringVar(&headID, "head", "latest", "scan id to diff to")
	fs.BoolVar(&jsonOutput, "json", false, "output JSON instead of a text summary")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path, err := resultstore.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: resolving result store: %v\n", err)
		return 1
	}
	store, err := resultstore.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading result store: %v\n", err)
		return 1
	}
	if len(store.Records) < 2 && baseID == "" {
		fmt.Fprintln(os.Stderr, "error: at least two stored scans are required to diff (run `vetra scan` twice first)")
		return 1
	}

	head, ok := resolveRecord(store, headID)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: head scan %q not found\n", headID)
		return 1
	}

	var base resultstore.Record
	if baseID == "" {
		base, ok = previousRecord(store, head.ID)
	} else {
		base, ok = resolveRecord(store, baseID)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "error: base scan %q not found\n", baseID)
		return 1
	}

	entries := resultstore.Diff(base, head)

	if jsonOutput {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: marshalling diff: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("diff %s..%s\n", base.ID, head.ID)
	var added, removed, changed, unchanged int
	for _, e := range entries {
		switch e.Status {
		case resultstore.DiffAdded:
			added++
			fmt.Printf("+ %-8s %s %s:%d %s\n", e.Find.Severity, e.Find.RuleID, e.Find.File, e.Find.Line, e.Find.Message)
		case resultstore.DiffRemoved:
			removed++
			fmt.Printf("- %-8s %s %s:%d %s\n", e.Find.Severity, e.Find.RuleID, e.Find.File, e.Find.Line, e.Find.Message)
		case resultstore.DiffSeverityChanged:
			changed++
			fmt.Printf("~ %s %s:%d %s -> %s\n", e.Find.RuleID, e.Find.File, e.Find.Line, e.Old.Severity, e.Find.Severity)
		case resultstore.DiffUnchanged:
			unchanged++
		}
	}
	fmt.Printf("\n%d added, %d removed, %d severity changed, %d unchanged\n", added, removed, changed, unchanged)
	return 0
}

func resolveRecord(store *resultstore.Store, id string) (resultstore.Record, bool) {
	if id == "latest" || id == "" {
		return store.Latest()
	}
	return store.Get(id)
}

// previousRecord returns the record immediately preceding headID in the
// store's chronological order, or false if headID is the oldest or absent.
func previousRecord(store *resultstore.Store, headID string) (resultstore.Record, bool) {
	for i, r := range store.Records {
		if r.ID == headID && i > 0 {
			return store.Records[i-1], true
		}
	}
	return resultstore.Record{}, false
}
