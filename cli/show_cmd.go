package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	vetra "github.com/vetra-sec/vetra/core"
	"github.com/vetra-sec/vetra/core/discovery"
	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/resultstore"
	"github.com/vetra-sec/vetra/cli/tui"
)

// runShow implements the "vetra show" command: run a scan (or load a
// previously stored one) and inspect its findings, interactively via the
// TUI when stdout is a terminal, or as JSON otherwise.
func runShow(args []string) int {
	var flagArgs, positionalArgs []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flagArgs = append(flagArgs, args[i])
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !isShowBoolFlag(args[i]) {
				i++
				flagArgs = append(flagArgs, args[i])
			}
		} else {
			positionalArgs = append(positionalArgs, args[i])
		}
	}

	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	var (
		severity   string
		rulePrefix string
		fromID     string
		jsonOutput bool
		contextN   int
	)
	fs.StringVar(&severity, "severity", "", "filter by severity: critical,high,medium,low (comma-separated)")
	fs.StringVar(&rulePrefix, "rule", "", "filter by rule ID prefix")
	fs.StringVar(&fromID, "from", "", "scan id to load from the result store instead of scanning")
	fs.BoolVar(&jsonOutput, "json", false, "output JSON instead of the TUI")
	fs.IntVar(&contextN, "context", 5, "number of source context lines")
	if err := fs.Parse(flagArgs); err != nil {
		return 2
	}
	positionalArgs = append(positionalArgs, fs.Args()...)

	var ff []findings.Finding
	if fromID != "" {
		record, err := loadStoredRecord(fromID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		ff = record.Findings
	} else {
		target := "."
		if len(positionalArgs) > 0 {
			target = positionalArgs[0]
		}
		targets, err := discovery.FindTargets(target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: discovering targets: %v\n", err)
			return 1
		}
		fmt.Printf("vetra %s — scanning %s\n", version, target)
		result, _, err := vetra.Scan(context.Background(), targets, vetra.ScanOptions{
			ApplySuppression: true,
			ScoreConfidence:  true,
			UseCache:         true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: scan failed: %v\n", err)
			return 1
		}
		fmt.Printf("[results] %d findings\n", len(result.Findings))
		ff = result.Findings
	}

	ff = filterFindings(ff, severity, rulePrefix)
	if len(ff) == 0 {
		fmt.Println("[show] no findings to display")
		return 0
	}

	if jsonOutput || !isTerminal() {
		data, err := json.MarshalIndent(ff, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: marshalling findings: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	m := tui.New(ff, contextN)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: TUI failed: %v\n", err)
		return 1
	}
	return 0
}

func filterFindings(ff []findings.Finding, severity, rulePrefix string) []findings.Finding {
	var severities map[findings.Severity]bool
	if severity != "" {
		severities = map[findings.Severity]bool{}
		for _, s := range strings.Split(severity, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				severities[findings.Severity(strings.ToUpper(s))] = true
			}
		}
	}

	var out []findings.Finding
	for _, f := range ff {
		if severities != nil && !severities[f.Severity] {
			continue
		}
		if rulePrefix != "" && !strings.HasPrefix(f.RuleID, rulePrefix) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func loadStoredRecord(id string) (resultstore.Record, error) {
	path, err := resultstore.DefaultPath()
	if err != nil {
		return resultstore.Record{}, err
	}
	store, err := resultstore.Load(path)
	if err != nil {
		return resultstore.Record{}, err
	}
	if id == "latest" {
		record, ok := store.Latest()
		if !ok {
			return resultstore.Record{}, fmt.Errorf("no stored scans found")
		}
		return record, nil
	}
	record, ok := store.Get(id)
	if !ok {
		return resultstore.Record{}, fmt.Errorf("scan %q not found in result store", id)
	}
	return record, nil
}

// isShowBoolFlag returns true if the given flag name is a boolean flag
// (it does not consume a following value argument).
func isShowBoolFlag(name string) bool {
	name = strings.TrimLeft(name, "-")
	return name == "json"
}
