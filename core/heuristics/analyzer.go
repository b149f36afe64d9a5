package heuristics

import (
	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// Analyze runs every applicable heuristic analyzer over item and returns
// their combined findings. It is the single entry point the scheduler calls
// when the scan's useBehavioral option is set (spec §4.4).
func Analyze(item content.Item) []findings.Finding {
	var out []findings.Finding
	out = append(out, DetectHighEntropy(item)...)
	out = append(out, AnalyzePackageScripts(item)...)
	out = append(out, AnalyzeManifest(item)...)
	out = append(out, AnalyzeCode(item)...)
	return out
}
