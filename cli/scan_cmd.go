package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	vetra "github.com/vetra-sec/vetra/core"
	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/discovery"
	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/mcpcollector"
	"github.com/vetra-sec/vetra/core/policy"
	"github.com/vetra-sec/vetra/core/report"
	"github.com/vetra-sec/vetra/core/report/sarif"
	"github.com/vetra-sec/vetra/core/resultstore"
)

// runScan implements the "vetra scan" command.
func runScan(args []string, formatFlag, outputDir, rulesPath string, quiet, verbose bool) int {
	scanFS := flag.NewFlagSet("scan", flag.ContinueOnError)
	var (
		mcpConfigPath        string
		disableRules         string
		severityFlag         string
		severityOverrideFlag string
		workers              int
		useCache             bool
		fixFlag              bool
		useBehavioral        bool
		minConfidence        float64
		noMinConfidence      bool
	)
	scanFS.StringVar(&mcpConfigPath, "mcp-config", "", "path to an MCP server JSON config to scan instead of a local path")
	scanFS.StringVar(&disableRules, "disable", "", "comma-separated rule IDs to disable")
	scanFS.StringVar(&severityFlag, "fail-on", "", "minimum severity that fails the scan: low,medium,high,critical")
	scanFS.StringVar(&severityOverrideFlag, "severity-override", "", "comma-separated RULE_ID=SEVERITY overrides")
	scanFS.IntVar(&workers, "workers", 0, "bounded worker pool size (0 = GOMAXPROCS)")
	scanFS.BoolVar(&useCache, "cache", true, "cache detection results by content hash")
	scanFS.BoolVar(&fixFlag, "fix", false, "apply comment-out remediation to signature findings")
	scanFS.BoolVar(&useBehavioral, "behavioral", true, "run heuristic analyzers alongside signature matching")
	scanFS.Float64Var(&minConfidence, "min-confidence", 0, "drop findings below this confidence score")
	scanFS.BoolVar(&noMinConfidence, "no-min-confidence", false, "disable the confidence floor entirely")
	if err := scanFS.Parse(args); err != nil {
		return 2
	}

	target := "."
	if scanFS.NArg() > 0 {
		target = scanFS.Arg(0)
	}

	cfg, err := vetra.LoadScanConfig(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading .vetra.yaml: %v\n", err)
		return 1
	}

	if formatFlag == "json" && cfg.Output.Format != "" {
		formatFlag = cfg.Output.Format
	}
	if outputDir == "." && cfg.Output.Directory != "" {
		outputDir = cfg.Output.Directory
	}
	if severityFlag == "" && cfg.Scan.FailOn != "" {
		severityFlag = cfg.Scan.FailOn
	}
	if rulesPath == "" && cfg.Scan.RulesDir != "" {
		rulesPath = cfg.Scan.RulesDir
	}
	if workers == 0 && cfg.Scan.Concurrency > 0 {
		workers = cfg.Scan.Concurrency
	}

	var targets []content.Target
	if mcpConfigPath != "" {
		targets, err = discovery.LoadMCPConfigTargets(mcpConfigPath)
	} else {
		targets, err = discovery.FindTargets(target)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: discovering targets: %v\n", err)
		return 1
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "error: no scannable targets found")
		return 1
	}

	var disableList []string
	for _, id := range strings.Split(disableRules, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			disableList = append(disableList, id)
		}
	}
	disableList = append(disableList, cfg.Scan.Rules.Disable...)

	severityOverride := map[string]string{}
	for k, v := range cfg.Scan.Rules.SeverityOverride {
		severityOverride[k] = v
	}
	for _, pair := range strings.Split(severityOverrideFlag, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			severityOverride[kv[0]] = kv[1]
		}
	}

	var confidenceFloor *float64
	if !noMinConfidence {
		if minConfidence > 0 {
			confidenceFloor = &minConfidence
		} else if cfg.Scan.MinConfidence != nil {
			confidenceFloor = cfg.Scan.MinConfidence
		}
	}

	cacheTTL := cfg.Scan.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	if !quiet {
		fmt.Printf("vetra %s — scanning %s (%d target(s))\n", version, target, len(targets))
	}

	progress := &cliProgress{quiet: quiet, verbose: verbose}

	opts := vetra.ScanOptions{
		ExtraRulesDir:    rulesPath,
		DisableRules:     disableList,
		SeverityOverride: severityOverride,
		UseBehavioral:    useBehavioral || cfg.Scan.UseBehavioral,
		ApplySuppression: true,
		ScoreConfidence:  true,
		MinConfidence:    confidenceFloor,
		UseCache:         useCache,
		CacheTTL:         cacheTTL,
		Workers:          workers,
		Fix:              fixFlag,
		MCP: mcpcollector.Options{
			ReadResources: cfg.MCP.ReadResources,
			Scope:         parseMCPScope(cfg.MCP.Scope),
		},
		Progress: progress,
		Logger:   slog.Default(),
	}

	result, targetErrs, err := vetra.Scan(context.Background(), targets, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: scan failed: %v\n", err)
		return 1
	}
	for _, te := range targetErrs {
		fmt.Fprintf(os.Stderr, "warning: target %s (%s): %v\n", te.Target.Name, te.Target.Path, te.Err)
	}

	if !quiet {
		fmt.Printf("[results] %d findings, %d files scanned in %dms\n",
			len(result.Findings), result.ScannedFiles, result.ElapsedMS)
	}

	if err := ensureOutputDir(outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: creating output directory: %v\n", err)
		return 1
	}

	view := buildScanView(result)
	for _, format := range parseFormats(formatFlag) {
		switch format {
		case "json":
			path := reportPath(outputDir, "findings.json")
			r := report.NewJSONReporter()
			if err := r.WriteToFile(view, path); err != nil {
				fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", path, err)
				return 1
			}
			if verbose {
				fmt.Printf("[report] wrote %s\n", path)
			}
		case "sarif":
			path := reportPath(outputDir, "results.sarif")
			r := sarif.NewReporter(version, nil)
			if err := r.WriteToFile(result.Findings, path); err != nil {
				fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", path, err)
				return 1
			}
			if verbose {
				fmt.Printf("[report] wrote %s\n", path)
			}
		default:
			fmt.Fprintf(os.Stderr, "warning: unknown format %q, skipping\n", format)
		}
	}

	scanID := persistScanResult(target, result)
	if verbose && scanID != "" {
		fmt.Printf("[store] recorded scan %s\n", scanID)
	}

	var policyResult policy.Result
	if severityFlag != "" {
		policyResult = policy.Evaluate(policy.Config{FailOn: severityFlagToSeverity(severityFlag)}, result.Findings)
		if !quiet {
			fmt.Printf("[policy] %s\n", policyResult.Summary)
		}
	} else {
		policyResult = policy.Result{Pass: true, ExitCode: 0}
	}

	if !quiet {
		fmt.Println("[done]")
	}
	return policyResult.ExitCode
}

// persistScanResult appends the completed scan to the result store at its
// default location and returns the generated scan id, or "" if the store
// could not be loaded or saved (a non-fatal condition: scan reports were
// already written to outputDir).
func persistScanResult(target string, result *vetra.ScanResult) string {
	path, err := resultstore.DefaultPath()
	if err != nil {
		return ""
	}
	store, err := resultstore.Load(path)
	if err != nil {
		return ""
	}
	id := store.Append(time.Now(), result.Targets, result.Findings)
	if err := store.Save(path); err != nil {
		return ""
	}
	_ = target
	return id
}

func buildScanView(result *vetra.ScanResult) report.ScanView {
	mcpServers := 0
	for _, t := range result.Targets {
		if t.Kind == content.TargetMCP {
			mcpServers++
		}
	}
	return report.ScanView{
		Targets:      result.Targets,
		Findings:     result.Findings,
		ScannedFiles: result.ScannedFiles,
		ElapsedMS:    result.ElapsedMS,
		MCPServers:   mcpServers,
	}
}

func parseMCPScope(scopes []string) []mcpcollector.Scope {
	if len(scopes) == 0 {
		return nil
	}
	out := make([]mcpcollector.Scope, 0, len(scopes))
	for _, s := range scopes {
		out = append(out, mcpcollector.Scope(s))
	}
	return out
}

func severityFlagToSeverity(s string) findings.Severity {
	return findings.Severity(strings.ToUpper(strings.TrimSpace(s)))
}
