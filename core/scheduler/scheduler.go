// Package scheduler drives parallel scanning of a ContentPlan: a bounded
// worker pool pulls items from a shared index, consults the scan cache,
// runs the rule engine and heuristic analyzers on misses, and reports
// progress through a ProgressSink, per the concurrency model of spec §4.7.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vetra-sec/vetra/core/cache"
	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
	"github.com/vetra-sec/vetra/core/heuristics"
	"github.com/vetra-sec/vetra/core/rules"
)

// Loader produces the ContentItem for one work item, deferring any I/O
// until the scheduler is ready to process it.
type Loader func() (content.Item, error)

// WorkItem is one unit of scheduled work: a stable identifier and a way to
// materialize its content.
type WorkItem struct {
	VirtualPath string
	Load        Loader
}

// ProgressSink receives scheduler progress events. Implementations must be
// safe for concurrent use: FileCompleted and FindingsEmitted may be called
// from multiple worker goroutines.
type ProgressSink interface {
	FileCompleted(virtualPath string)
	FindingsEmitted(found []findings.Finding)
}

// NoopSink discards every progress event.
type NoopSink struct{}

func (NoopSink) FileCompleted(string)                  {}
func (NoopSink) FindingsEmitted([]findings.Finding)     {}

// Options configures a scheduler run.
type Options struct {
	// Workers bounds pool size. Zero selects the spec §4.7 default:
	// min(32, max(4, cores/2)).
	Workers int
	// UseBehavioral enables the heuristic analyzers alongside signature
	// matching, per spec §4.4's useBehavioral scan option.
	UseBehavioral bool
	// UseCache enables scan cache consultation and population. When false,
	// every item is matched fresh and nothing is cached.
	UseCache bool
	Cache    *cache.Cache
	Progress ProgressSink
	Logger   *slog.Logger
}

// DefaultWorkerCount returns min(32, max(4, cores/2)), the bound specified
// in spec §4.7.
func DefaultWorkerCount() int {
	n := runtime.NumCPU() / 2
	if n < 4 {
		n = 4
	}
	if n > 32 {
		n = 32
	}
	return n
}

// Run processes every item in items against engine (indexed by rule_version
// for cache validation) and returns the combined findings. Errors loading
// individual items are swallowed — per spec §4.7 step 4, an unreadable item
// is treated as "no findings," never a scan error. Run returns a non-nil
// error only if ctx is canceled before any work completes in a way the
// caller should observe (errgroup plumbing); in ordinary operation it
// returns nil.
func Run(ctx context.Context, items []WorkItem, engine *rules.Engine, ruleVersion string, opts Options) ([]findings.Finding, error) {
	if opts.Progress == nil {
		opts.Progress = NoopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkerCount()
	}

	var (
		mu       sync.Mutex
		next     int
		combined []findings.Finding
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if gCtx.Err() != nil {
					return nil
				}

				mu.Lock()
				if next >= len(items) {
					mu.Unlock()
					return nil
				}
				item := items[next]
				next++
				mu.Unlock()

				found := processItem(item, engine, ruleVersion, opts)

				mu.Lock()
				combined = append(combined, found...)
				mu.Unlock()

				opts.Progress.FileCompleted(item.VirtualPath)
				if len(found) > 0 {
					opts.Progress.FindingsEmitted(found)
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return combined, fmt.Errorf("scheduler: %w", err)
	}
	return combined, nil
}

// processItem loads one item, consults the cache, and runs the detection
// pipeline on a miss. A load failure yields zero findings, matching the
// "unreadable file swallowed" contract.
func processItem(item WorkItem, engine *rules.Engine, ruleVersion string, opts Options) []findings.Finding {
	ci, err := item.Load()
	if err != nil {
		opts.Logger.Debug("scheduler: skipping unreadable item", "virtual_path", item.VirtualPath, "error", err)
		return nil
	}

	if opts.UseCache && opts.Cache != nil {
		if cached, hit := opts.Cache.Lookup(ci.VirtualPath, ci.Content, ruleVersion); hit {
			return cached
		}
	}

	found := rules.Match(engine, ci.Content, ci.VirtualPath, string(ci.FileType))
	if opts.UseBehavioral {
		found = append(found, heuristics.Analyze(ci)...)
	}

	if opts.UseCache && opts.Cache != nil {
		opts.Cache.Store(ci.VirtualPath, ci.Content, ruleVersion, found, time.Now())
	}

	return found
}
