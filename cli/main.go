// Package main is the entry point for the vetra CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// extractInterspersedArgs reorders args so that known top-level flags come
// before positional arguments, allowing "vetra scan . --format sarif" to
// work the same as "vetra --format sarif scan .". Subcommand-specific
// flags are left in place for the subcommand to parse.
func extractInterspersedArgs(args []string) []string {
	subcommand := ""
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			subcommand = arg
			break
		}
	}

	var flags, rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") {
			rest = append(rest, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if eq := strings.Index(name, "="); eq >= 0 {
			name = name[:eq]
		}
		if isTopLevelBoolFlag(name) {
			flags = append(flags, arg)
		} else if subcommand == "scan" && isTopLevelStringFlag(name) {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			rest = append(rest, arg)
		}
	}
	return append(flags, rest...)
}

func isTopLevelBoolFlag(name string) bool {
	switch name {
	case "quiet", "q", "verbose", "v", "version":
		return true
	}
	return false
}

func isTopLevelStringFlag(name string) bool {
	switch name {
	case "format", "output", "rules":
		return true
	}
	return false
}

// run executes the CLI and returns the process exit code: 0 = pass, 2 =
// the configured severity floor was met, 1 = a terminal error (no
// targets, bad arguments, scan failure).
func run(args []string) int {
	args = extractInterspersedArgs(args)
	fs := flag.NewFlagSet("vetra", flag.ContinueOnError)

	var (
		formatFlag  string
		outputDir   string
		rulesFlag   string
		quietFlag   bool
		verboseFlag bool
		versionFlag bool
	)

	fs.StringVar(&formatFlag, "format", "json", "output formats: json,sarif,all (comma-separated)")
	fs.StringVar(&outputDir, "output", ".", "output directory for report files")
	fs.StringVar(&rulesFlag, "rules", "", "path to extra rules YAML file or directory")
	fs.BoolVar(&quietFlag, "quiet", false, "suppress all output except errors")
	fs.BoolVar(&quietFlag, "q", false, "suppress all output except errors (shorthand)")
	fs.BoolVar(&verboseFlag, "verbose", false, "enable verbose output")
	fs.BoolVar(&verboseFlag, "v", false, "enable verbose output (shorthand)")
	fs.BoolVar(&versionFlag, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vetra <command> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  scan <path>      Scan skills, extensions, and MCP servers for security issues\n")
		fmt.Fprintf(os.Stderr, "  show [path]      Inspect findings interactively\n")
		fmt.Fprintf(os.Stderr, "  explain <path>   Explain findings using an LLM\n")
		fmt.Fprintf(os.Stderr, "  diff             Compare two stored scans\n")
		fmt.Fprintf(os.Stderr, "  watch [path]     Watch for changes and re-scan\n")
		fmt.Fprintf(os.Stderr, "  version          Print version and exit\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if versionFlag {
		fmt.Printf("vetra %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: vetra <command> [flags]")
		return 1
	}

	command := remaining[0]
	switch command {
	case "scan":
		return runScan(remaining[1:], formatFlag, outputDir, rulesFlag, quietFlag, verboseFlag)
	case "show":
		return runShow(remaining[1:])
	case "explain":
		return runExplain(remaining[1:])
	case "diff":
		return runDiff(remaining[1:])
	case "watch":
		return runWatch(remaining[1:])
	case "version":
		fmt.Printf("vetra %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		fmt.Fprintln(os.Stderr, "Usage: vetra <command> [flags]")
		return 1
	}
}

// parseFormats splits the comma-separated format flag into individual
// format strings. "all" expands to every supported format.
func parseFormats(flagValue string) []string {
	if flagValue == "all" {
		return []string{"json", "sarif"}
	}

	var formats []string
	for _, f := range strings.Split(flagValue, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return []string{"json"}
	}
	return formats
}

// isTerminal returns true if stdout is connected to a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func ensureOutputDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func reportPath(outputDir, name string) string {
	return filepath.Join(outputDir, name)
}
