package meta

import (
	"time"

	"github.com/vetra-sec/vetra/core/findings"
)

// Options configures the meta-analyzer pass, per spec §4.8 and SPEC_FULL
// §12's suppression supplement.
type Options struct {
	// ApplySuppression drops findings whose LineText carries a matching
	// vetra:ignore directive before dedup/scoring runs.
	ApplySuppression bool
	// ScoreConfidence assigns Finding.Confidence via Score. When false,
	// Confidence is left at its zero value for every finding.
	ScoreConfidence bool
	// MinConfidence, when non-nil, drops findings scoring below it. Only
	// meaningful alongside ScoreConfidence.
	MinConfidence *float64
	// Now is the suppression-expiry reference time. Defaults to
	// time.Now() if zero.
	Now time.Time
}

// Run applies the meta-analyzer pipeline to fs in place, in the order spec
// §4.8 and SPEC_FULL §12 require: suppression filter, de-duplication,
// confidence scoring, then threshold filtering.
func Run(fs *findings.FindingSet, opts Options) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	if opts.ApplySuppression {
		filterSuppressed(fs, now)
	}

	fs.Deduplicate()

	if opts.ScoreConfidence {
		scoreAll(fs)
		if opts.MinConfidence != nil {
			fs.FilterMinConfidence(*opts.MinConfidence)
		}
	}
}

// filterSuppressed rebuilds fs keeping only findings not covered by a
// vetra:ignore directive on their own line.
func filterSuppressed(fs *findings.FindingSet, now time.Time) {
	kept := findings.NewFindingSet()
	for _, f := range fs.Findings() {
		if suppressed(f.LineText, f.RuleID, now) {
			continue
		}
		kept.Add(f)
	}
	*fs = *kept
}

// scoreAll rebuilds fs with every finding's Confidence populated by Score.
func scoreAll(fs *findings.FindingSet) {
	scored := findings.NewFindingSet()
	for _, f := range fs.Findings() {
		f.Confidence = Score(f)
		scored.Add(f)
	}
	*fs = *scored
}
