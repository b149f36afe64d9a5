package heuristics

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// Fixed heuristic identifiers for extension-manifest findings, per spec
// §4.4.3.
const (
	ManifestBroadHostPermissionRuleID = "MANIFEST_BROAD_HOST_PERMISSION"
	ManifestUndeclaredNetworkRuleID   = "MANIFEST_UNDECLARED_NETWORK_ACCESS"
	ManifestRemoteContentScriptRuleID = "MANIFEST_REMOTE_CONTENT_SCRIPT"
	ManifestPersistentBackgroundID    = "MANIFEST_PERSISTENT_BACKGROUND_SERVICE"
)

// broadHostPatterns are host_permissions/permissions entries treated as
// granting access to effectively every origin.
var broadHostPatterns = map[string]bool{
	"<all_urls>": true,
	"*://*/*":     true,
	"http://*/*":  true,
	"https://*/*": true,
}

// manifestJSON is the subset of a browser/IDE extension manifest.json this
// analyzer inspects.
type manifestJSON struct {
	Permissions     []string        `json:"permissions"`
	HostPermissions []string        `json:"host_permissions"`
	ContentScripts  []contentScript `json:"content_scripts"`
	Background      json.RawMessage `json:"background"`
}

type contentScript struct {
	Matches []string `json:"matches"`
}

// AnalyzeManifest implements spec §4.4.3: activated only when the basename
// is manifest.json and the JSON parses.
func AnalyzeManifest(item content.Item) []findings.Finding {
	if filepath.Base(item.VirtualPath) != "manifest.json" {
		return nil
	}

	var m manifestJSON
	if err := json.Unmarshal([]byte(item.Content), &m); err != nil {
		return nil
	}

	var out []findings.Finding

	for _, perm := range append(append([]string{}, m.Permissions...), m.HostPermissions...) {
		if broadHostPatterns[perm] {
			out = append(out, findings.Finding{
				RuleID:   ManifestBroadHostPermissionRuleID,
				Severity: findings.SeverityHigh,
				Category: "extension-manifest",
				Source:   findings.SourceHeuristic,
				Message:  "manifest grants a broad host permission: " + perm,
				File:     item.VirtualPath,
			})
		}
	}

	if hasNetworkPermission(m.Permissions) && len(m.HostPermissions) == 0 {
		out = append(out, findings.Finding{
			RuleID:   ManifestUndeclaredNetworkRuleID,
			Severity: findings.SeverityMedium,
			Category: "extension-manifest",
			Source:   findings.SourceHeuristic,
			Message:  "manifest requests network-capable permissions without declaring host_permissions",
			File:     item.VirtualPath,
		})
	}

	for _, cs := range m.ContentScripts {
		for _, match := range cs.Matches {
			if broadHostPatterns[match] {
				out = append(out, findings.Finding{
					RuleID:   ManifestRemoteContentScriptRuleID,
					Severity: findings.SeverityHigh,
					Category: "extension-manifest",
					Source:   findings.SourceHeuristic,
					Message:  "content script injects into a broad match pattern: " + match,
					File:     item.VirtualPath,
				})
			}
		}
	}

	if len(m.Background) > 0 && !strings.Contains(string(m.Background), `"persistent":false`) &&
		!strings.Contains(string(m.Background), `"persistent": false`) {
		out = append(out, findings.Finding{
			RuleID:   ManifestPersistentBackgroundID,
			Severity: findings.SeverityLow,
			Category: "extension-manifest",
			Source:   findings.SourceHeuristic,
			Message:  "background service is declared without explicit non-persistence",
			File:     item.VirtualPath,
		})
	}

	return out
}

// networkPermissions are permission strings that imply outbound network
// capability without necessarily declaring host_permissions.
var networkPermissions = map[string]bool{
	"webRequest":        true,
	"webRequestBlocking": true,
	"proxy":             true,
}

func hasNetworkPermission(perms []string) bool {
	for _, p := range perms {
		if networkPermissions[p] {
			return true
		}
	}
	return false
}
