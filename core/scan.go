package core

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/vetra-sec/vetra/core/cache"
	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/fix"
	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/mcpcollector"
	"github.com/vetra-sec/vetra/core/meta"
	"github.com/vetra-sec/vetra/core/rules"
	"github.com/vetra-sec/vetra/core/scheduler"
)

// ScanResult holds the complete output of one orchestrator run, per
// spec §3.
type ScanResult struct {
	Targets      []content.Target
	Findings     []findings.Finding
	ScannedFiles int
	ElapsedMS    int64
}

// TargetError records a non-fatal failure collecting one target's content
// (spec §4.9: multi-server MCP mode attaches the error instead of aborting
// the scan).
type TargetError struct {
	Target content.Target
	Err    error
}

// ProgressSink is the orchestrator's single point of contact with a
// consumer such as a TUI (spec §4.10: "it sees only typed events and holds
// no reference to internal state").
type ProgressSink interface {
	Start(totalItems int)
	BeginTarget(t content.Target)
	FileCompleted(virtualPath string)
	FindingsEmitted(found []findings.Finding)
	CompleteTarget(t content.Target, findingCount int)
	Finish(result *ScanResult)
}

// NoopProgressSink discards every event.
type NoopProgressSink struct{}

func (NoopProgressSink) Start(int)                       {}
func (NoopProgressSink) BeginTarget(content.Target)       {}
func (NoopProgressSink) FileCompleted(string)             {}
func (NoopProgressSink) FindingsEmitted([]findings.Finding) {}
func (NoopProgressSink) CompleteTarget(content.Target, int) {}
func (NoopProgressSink) Finish(*ScanResult)               {}

// ScanOptions configures one orchestrator run, per spec §4.10 and the
// ambient-stack/domain-stack additions in SPEC_FULL §10-11.
type ScanOptions struct {
	// ExtraRulesDir, if set, is merged (lexicographic order) on top of the
	// embedded default corpus.
	ExtraRulesDir string
	DisableRules  []string
	SeverityOverride map[string]string

	UseBehavioral    bool
	ApplySuppression bool
	ScoreConfidence  bool
	MinConfidence    *float64

	UseCache  bool
	CachePath string
	CacheTTL  time.Duration

	Workers int

	// Fix applies the narrow comment-out fix mode (spec §4.11) to
	// signature findings on disk after scanning.
	Fix bool

	MCP mcpcollector.Options

	Progress ProgressSink
	Logger   *slog.Logger
}

// compileRules builds the rule corpus: the embedded default, merged with
// opts.ExtraRulesDir if set, with config overrides applied.
func compileRules(opts ScanOptions) (*rules.Engine, string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rs, err := rules.LoadDefault(logger)
	if err != nil {
		return nil, "", fmt.Errorf("core: load default rule corpus: %w", err)
	}

	if opts.ExtraRulesDir != "" {
		extra, err := rules.LoadDir(opts.ExtraRulesDir, logger)
		if err != nil {
			return nil, "", fmt.Errorf("core: load rules dir %s: %w", opts.ExtraRulesDir, err)
		}
		for _, r := range extra.Rules() {
			rs.Add(r)
		}
	}

	if len(opts.DisableRules) > 0 || len(opts.SeverityOverride) > 0 {
		rs = rules.ApplyOverrides(rs, opts.DisableRules, opts.SeverityOverride)
	}

	version := rules.Version(rs)
	return rules.NewEngine(rs), version, nil
}

// Scan drives the full pipeline of spec §4.10: compile rules once, build a
// ContentPlan per target, schedule detection, apply the meta-analyzer
// per-target and cross-target, and return the assembled ScanResult.
func Scan(ctx context.Context, targets []content.Target, opts ScanOptions) (*ScanResult, []TargetError, error) {
	start := time.Now()

	if opts.Progress == nil {
		opts.Progress = NoopProgressSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine, ruleVersion, err := compileRules(opts)
	if err != nil {
		return nil, nil, err
	}

	var scanCache *cache.Cache
	if opts.UseCache {
		path := opts.CachePath
		if path == "" {
			path, err = cache.DefaultPath()
			if err != nil {
				return nil, nil, fmt.Errorf("core: resolve cache path: %w", err)
			}
		}
		scanCache, err = cache.Load(path, opts.CacheTTL)
		if err != nil {
			logger.Warn("core: cache load failed, starting empty", "error", err)
			scanCache = cache.New(opts.CacheTTL)
		}
		defer func() {
			if err := scanCache.Save(path); err != nil {
				logger.Warn("core: cache save failed", "error", err)
			}
		}()
	}

	plans := make([]plannedTarget, 0, len(targets))
	var targetErrs []TargetError
	totalItems := 0
	for _, t := range targets {
		items, workItems, err := planTarget(ctx, t, opts)
		if err != nil {
			targetErrs = append(targetErrs, TargetError{Target: t, Err: err})
			continue
		}
		plans = append(plans, plannedTarget{target: t, items: items, work: workItems})
		totalItems += len(workItems)
	}

	opts.Progress.Start(totalItems)

	allFindings := findings.NewFindingSet()
	scannedFiles := 0

	for _, p := range plans {
		opts.Progress.BeginTarget(p.target)

		found, err := scheduler.Run(ctx, p.work, engine, ruleVersion, scheduler.Options{
			Workers:       opts.Workers,
			UseBehavioral: opts.UseBehavioral,
			UseCache:      opts.UseCache,
			Cache:         scanCache,
			Progress:      schedulerSinkAdapter{opts.Progress},
			Logger:        logger,
		})
		if err != nil {
			targetErrs = append(targetErrs, TargetError{Target: p.target, Err: err})
		}

		targetSet := findings.NewFindingSet()
		targetSet.AddAll(found)
		meta.Run(targetSet, meta.Options{ApplySuppression: opts.ApplySuppression})

		allFindings.AddAll(targetSet.Findings())
		scannedFiles += len(p.work)
		opts.Progress.CompleteTarget(p.target, targetSet.Len())
	}

	meta.Run(allFindings, meta.Options{
		ScoreConfidence: opts.ScoreConfidence,
		MinConfidence:   opts.MinConfidence,
	})
	allFindings.SortDeterministic()

	if opts.Fix {
		if err := fix.Apply(allFindings.Findings()); err != nil {
			logger.Warn("core: fix mode failed", "error", err)
		}
	}

	result := &ScanResult{
		Targets:      targets,
		Findings:     allFindings.Findings(),
		ScannedFiles: scannedFiles,
		ElapsedMS:    time.Since(start).Milliseconds(),
	}
	opts.Progress.Finish(result)
	return result, targetErrs, nil
}

type plannedTarget struct {
	target content.Target
	items  []content.Item
	work   []scheduler.WorkItem
}

// planTarget invokes the appropriate content adapter for t (spec §4.10 step
// 2): a recursive local-file walk for path/skill/extension/ide-extension
// targets, or an MCP collector round-trip for mcp targets.
func planTarget(ctx context.Context, t content.Target, opts ScanOptions) ([]content.Item, []scheduler.WorkItem, error) {
	if t.Kind == content.TargetMCP {
		return planMCPTarget(ctx, t, opts)
	}
	return planLocalTarget(t)
}

// planLocalTarget walks t.Path, skipping VCS metadata directories, and
// builds one lazy WorkItem per regular file. content.LoadLocalFile applies
// the size cap, archive exclusion, and binary/text probe per spec §4.5; a
// skipped file is simply omitted rather than surfaced as an error.
func planLocalTarget(t content.Target) ([]content.Item, []scheduler.WorkItem, error) {
	var work []scheduler.WorkItem

	err := filepath.WalkDir(t.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry: swallowed per spec §4.7 step 4
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		p := path
		work = append(work, scheduler.WorkItem{
			VirtualPath: p,
			Load: func() (content.Item, error) {
				return content.LoadLocalFile(p)
			},
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("core: walk target %s: %w", t.Path, err)
	}
	return nil, work, nil
}

// planMCPTarget connects to the server named by t.Path (its URL) and
// virtualizes its tools/prompts/resources/instructions, per spec §4.9. The
// network round trip happens eagerly here (not lazily in the returned
// WorkItems) because the collector issues one request per category rather
// than one per item.
func planMCPTarget(ctx context.Context, t content.Target, opts ScanOptions) ([]content.Item, []scheduler.WorkItem, error) {
	collector := mcpcollector.NewCollector(mcpcollector.ServerConfig{Name: t.Name, URL: t.Path}, opts.MCP)
	if err := collector.Connect(ctx); err != nil {
		return nil, nil, err
	}
	defer collector.Close()

	items, err := collector.Collect(ctx)
	if err != nil {
		return nil, nil, err
	}

	work := make([]scheduler.WorkItem, 0, len(items))
	for _, item := range items {
		item := item
		work = append(work, scheduler.WorkItem{
			VirtualPath: item.VirtualPath,
			Load:        func() (content.Item, error) { return item, nil },
		})
	}
	return items, work, nil
}

// schedulerSinkAdapter lets the orchestrator's ProgressSink satisfy
// scheduler.ProgressSink without the scheduler package depending on core.
type schedulerSinkAdapter struct {
	sink ProgressSink
}

func (a schedulerSinkAdapter) FileCompleted(virtualPath string) {
	a.sink.FileCompleted(virtualPath)
}

func (a schedulerSinkAdapter) FindingsEmitted(found []findings.Finding) {
	a.sink.FindingsEmitted(found)
}
