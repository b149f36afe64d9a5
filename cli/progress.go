package main

import (
	"fmt"

	vetra "github.com/vetra-sec/vetra/core"
	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// cliProgress is the plain-text vetra.ProgressSink used when no TUI is
// attached: it prints one line per target and, in verbose mode, one line
// per completed file.
type cliProgress struct {
	quiet   bool
	verbose bool
	total   int
	done    int
}

func (p *cliProgress) Start(totalItems int) {
	p.total = totalItems
}

func (p *cliProgress) BeginTarget(t content.Target) {
	if p.quiet {
		return
	}
	fmt.Printf("[scan] %s (%s)\n", t.Name, t.Kind)
}

func (p *cliProgress) FileCompleted(virtualPath string) {
	p.done++
	if p.verbose {
		fmt.Printf("  [file] %s\n", virtualPath)
	}
}

func (p *cliProgress) FindingsEmitted(found []findings.Finding) {
	if p.quiet || !p.verbose {
		return
	}
	for _, f := range found {
		fmt.Printf("  [finding] %s %s:%d %s\n", f.Severity, f.File, f.Line, f.RuleID)
	}
}

func (p *cliProgress) CompleteTarget(t content.Target, findingCount int) {
	if p.quiet {
		return
	}
	fmt.Printf("[scan] %s complete: %d finding(s)\n", t.Name, findingCount)
}

func (p *cliProgress) Finish(result *vetra.ScanResult) {}
