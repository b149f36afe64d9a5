package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vetra-sec/vetra/assist"
	vetra "github.com/vetra-sec/vetra/core"
	"github.com/vetra-sec/vetra/core/discovery"
	"github.com/vetra-sec/vetra/core/findings"
)

// runExplain implements the "vetra explain" command: run a scan and ask an
// LLM to explain each finding in plain language, with an executive summary.
func runExplain(args []string) int {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	var (
		model     string
		apiKey    string
		baseURL   string
		timeout   time.Duration
		batchSize int
		output    string
		fromID    string
	)
	fs.StringVar(&model, "model", "gpt-4o", "LLM model to use")
	fs.StringVar(&apiKey, "api-key", "", "API key (falls back to OPENAI_API_KEY)")
	fs.StringVar(&baseURL, "base-url", "", "custom API base URL (for Ollama, vLLM, Azure, etc.)")
	fs.DurationVar(&timeout, "timeout", 2*time.Minute, "per-request timeout")
	fs.IntVar(&batchSize, "batch-size", 10, "findings per LLM request")
	fs.StringVar(&output, "output", "explanations.json", "output file path")
	fs.StringVar(&fromID, "from", "", "scan id to load from the result store instead of scanning")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	targetFindings, err := collectFindingsForExplain(fs.Args(), fromID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if len(targetFindings) == 0 {
		fmt.Println("[explain] no findings to explain")
		return 0
	}

	providerOpts := []assist.OpenAIOption{assist.WithModel(model), assist.WithTimeout(timeout)}
	if apiKey != "" {
		providerOpts = append(providerOpts, assist.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		providerOpts = append(providerOpts, assist.WithBaseURL(baseURL))
	}
	provider := assist.NewOpenAIProvider(providerOpts...)
	explainer := assist.NewExplainer(provider, assist.WithBatchSize(batchSize))

	fmt.Printf("[explain] sending %d finding(s) to %s\n", len(targetFindings), model)
	report, err := explainer.Explain(context.Background(), targetFindings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: explain failed: %v\n", err)
		return 1
	}

	if err := report.WriteFile(output); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", output, err)
		return 1
	}

	fmt.Printf("[explain] wrote %s (%d explanations, %d tokens used)\n",
		output, len(report.Explanations), report.Usage.TotalTokens)
	fmt.Println(report.Summary)
	return 0
}

// collectFindingsForExplain resolves the findings to explain, either from a
// stored scan record (fromID) or by running a fresh scan against the given
// positional target path (defaulting to the current directory).
func collectFindingsForExplain(positional []string, fromID string) ([]findings.Finding, error) {
	if fromID != "" {
		record, err := loadStoredRecord(fromID)
		if err != nil {
			return nil, err
		}
		return record.Findings, nil
	}

	target := "."
	if len(positional) > 0 {
		target = positional[0]
	}
	targets, err := discovery.FindTargets(target)
	if err != nil {
		return nil, fmt.Errorf("discovering targets: %w", err)
	}
	result, _, err := vetra.Scan(context.Background(), targets, vetra.ScanOptions{
		ApplySuppression: true,
		ScoreConfidence:  true,
		UseCache:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return result.Findings, nil
}
