// Package policy evaluates scan findings against a configurable severity
// floor to determine the orchestrator's exit code for CI pipelines.
package policy

import (
	"fmt"

	"github.com/vetra-sec/vetra/core/findings"
)

// Config defines the policy evaluation parameters. An empty FailOn disables
// gating entirely: the scan always passes regardless of findings.
type Config struct {
	FailOn findings.Severity
}

// Result holds the outcome of a policy evaluation.
type Result struct {
	Pass     bool
	ExitCode int
	Summary  string
}

// Evaluate applies Config.FailOn against the given findings. ExitCode is 0
// when the scan passes and 2 when at least one finding meets or exceeds
// the configured floor, per the orchestrator's exit-code contract.
func Evaluate(cfg Config, all []findings.Finding) Result {
	if cfg.FailOn == "" {
		return Result{Pass: true, ExitCode: 0, Summary: fmt.Sprintf("policy: pass (%d findings, no fail threshold configured)", len(all))}
	}

	worst := maxSeverity(all)
	if worst != "" && worst.AtLeast(cfg.FailOn) {
		return Result{
			Pass:     false,
			ExitCode: 2,
			Summary:  fmt.Sprintf("policy: fail (%d findings, worst severity %s meets floor %s)", len(all), worst, cfg.FailOn),
		}
	}
	return Result{Pass: true, ExitCode: 0, Summary: fmt.Sprintf("policy: pass (%d findings, none meet floor %s)", len(all), cfg.FailOn)}
}

// maxSeverity returns the most severe severity present in ff, or "" if ff
// is empty.
func maxSeverity(ff []findings.Finding) findings.Severity {
	best := findings.Severity("")
	for _, f := range ff {
		if best == "" || f.Severity.Rank() > best.Rank() {
			best = f.Severity
		}
	}
	return best
}
