package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	vetra "github.com/vetra-sec/vetra/core"
	"github.com/vetra-sec/vetra/core/discovery"
	"github.com/vetra-sec/vetra/core/findings"
)

// runWatch implements the "vetra watch" command: recursively watch a
// directory for changes and re-scan on a debounced timer.
func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var (
		debounce time.Duration
		jsonFlag bool
	)
	fs.DurationVar(&debounce, "debounce", 300*time.Millisecond, "debounce interval for file changes")
	fs.BoolVar(&jsonFlag, "json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	target := "."
	if fs.NArg() > 0 {
		target = fs.Arg(0)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating watcher: %v\n", err)
		return 2
	}
	defer watcher.Close()

	if err := addWatchDirsRecursive(watcher, target); err != nil {
		fmt.Fprintf(os.Stderr, "error: watching directories: %v\n", err)
		return 2
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("watch: scanning %s (debounce: %s)\n", target, debounce)
	printWatchScanResults(target, jsonFlag)

	var mu sync.Mutex
	var timer *time.Timer

	resetTimer := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			fmt.Print("\033[2J\033[H")
			fmt.Printf("watch: re-scanning %s\n", target)
			printWatchScanResults(target, jsonFlag)
		})
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return 0
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if event.Has(fsnotify.Create) {
					info, err := os.Stat(event.Name)
					if err == nil && info.IsDir() {
						_ = addWatchDirsRecursive(watcher, event.Name)
					}
				}
				resetTimer()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return 0
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-sigCh:
			fmt.Println("\nwatch: stopped")
			return 0
		}
	}
}

func printWatchScanResults(target string, jsonOutput bool) {
	targets, err := discovery.FindTargets(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: discovering targets: %v\n", err)
		return
	}
	if len(targets) == 0 {
		fmt.Println("[results] no scannable targets found")
		return
	}

	result, _, err := vetra.Scan(context.Background(), targets, vetra.ScanOptions{
		ApplySuppression: true,
		ScoreConfidence:  true,
		UseCache:         true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: scan failed: %v\n", err)
		return
	}

	counts := countBySeverity(result.Findings)
	fmt.Printf("[results] %d finding(s)", len(result.Findings))
	if len(counts) > 0 {
		first := true
		fmt.Print(" — ")
		for _, sev := range []findings.Severity{findings.SeverityCritical, findings.SeverityHigh, findings.SeverityMedium, findings.SeverityLow} {
			if n, ok := counts[sev]; ok {
				if !first {
					fmt.Print(", ")
				}
				fmt.Printf("%d %s", n, sev)
				first = false
			}
		}
	}
	fmt.Println()

	if jsonOutput {
		for _, f := range result.Findings {
			fmt.Printf("  %s %s:%d %s — %s\n", f.Severity, f.File, f.Line, f.RuleID, f.Message)
		}
	}
}

func countBySeverity(ff []findings.Finding) map[findings.Severity]int {
	counts := map[findings.Severity]int{}
	for _, f := range ff {
		counts[f.Severity]++
	}
	return counts
}

func addWatchDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if base == ".git" || base == "node_modules" || base == ".vetra" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
