// Package discovery enumerates scan targets on a local filesystem root:
// agent "skill" directories (marked by SKILL.md), installed browser/IDE
// extension directories (marked by manifest.json), and MCP JSON config
// exports (marked by an mcpServers map). It is an external collaborator
// per spec §2 ("target discovery is treated as an opaque iterator
// producing Target records; the engine is indifferent to how those came
// into being") — the engine only ever consumes the content.Target values
// this package builds. Gitignore patterns are respected and the .git
// directory is always skipped.
package discovery

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vetra-sec/vetra/core/content"
)

// skillManifest is the file that marks a directory as an agent skill,
// per spec §4.1's file-type anchor list.
const skillManifest = "SKILL.md"

// extensionManifest is the file that marks a directory as a browser or
// IDE extension, per spec §4.1's file-type anchor list.
const extensionManifest = "manifest.json"

// FindTargets walks root looking for skill and extension roots and
// returns one content.Target per root found. If none are found, root
// itself becomes a single content.TargetPath target so that a plain
// directory still scans in full — the common case when a user points
// vetra at an arbitrary checkout rather than a skills/extensions tree.
func FindTargets(root string) ([]content.Target, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	patterns, err := LoadGitignore(absRoot)
	if err != nil {
		return nil, err
	}

	var targets []content.Target
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable entry: swallowed, matching the scheduler's own policy
		}
		if !info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		if info.Name() == ".git" {
			return filepath.SkipDir
		}
		if rel != "." && IsIgnored(rel, patterns) {
			return filepath.SkipDir
		}

		if t, ok := classifyRoot(path); ok {
			targets = append(targets, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(targets) == 0 {
		return []content.Target{{Kind: content.TargetPath, Name: filepath.Base(absRoot), Path: absRoot}}, nil
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].Path < targets[j].Path })
	return targets, nil
}

// classifyRoot reports whether dir is itself a skill or extension root,
// per the manifest anchors in spec §4.1.
func classifyRoot(dir string) (content.Target, bool) {
	name := filepath.Base(dir)

	if _, err := os.Stat(filepath.Join(dir, skillManifest)); err == nil {
		return content.Target{Kind: content.TargetSkill, Name: name, Path: dir}, true
	}

	if _, err := os.Stat(filepath.Join(dir, extensionManifest)); err == nil {
		kind := content.TargetExtension
		if looksLikeIDEExtension(dir) {
			kind = content.TargetIDEExtension
		}
		return content.Target{Kind: kind, Name: name, Path: dir}, true
	}

	return content.Target{}, false
}

// looksLikeIDEExtension applies a cheap heuristic: a package.json
// declaring an "engines.vscode" (or similarly named editor host) entry
// alongside manifest.json marks an IDE extension rather than a browser
// extension. Absence of package.json, or a read/parse failure, defaults
// to "browser extension" since that is the more common manifest.json
// producer.
func looksLikeIDEExtension(dir string) bool {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return false
	}
	var pkg struct {
		Engines map[string]string `json:"engines"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return false
	}
	for engine := range pkg.Engines {
		e := strings.ToLower(engine)
		if e == "vscode" || e == "jetbrains" || strings.Contains(e, "intellij") {
			return true
		}
	}
	return false
}

// mcpConfig is the shape of a common MCP JSON export: a named map of
// server entries, each carrying the HTTP endpoint URL to collect from.
type mcpConfig struct {
	MCPServers map[string]struct {
		URL string `json:"url"`
	} `json:"mcpServers"`
}

// LoadMCPConfigTargets parses an MCP JSON export (e.g. a Claude Desktop or
// editor mcp.json) and returns one content.TargetMCP per server entry that
// carries a URL. Entries without a URL (stdio-launched servers) are
// skipped, since the core engine only collects from HTTP endpoints per
// spec §4.9.
func LoadMCPConfigTargets(path string) ([]content.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg mcpConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.MCPServers))
	for name := range cfg.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]content.Target, 0, len(names))
	for _, name := range names {
		entry := cfg.MCPServers[name]
		if entry.URL == "" {
			continue
		}
		targets = append(targets, content.Target{Kind: content.TargetMCP, Name: name, Path: entry.URL})
	}
	return targets, nil
}
