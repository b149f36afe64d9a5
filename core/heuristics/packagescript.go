package heuristics

import (
	"encoding/json"
	"path/filepath"
	"regexp"

	"github.com/vetra-sec/vetra/core/content"
	"github.com/vetra-sec/vetra/core/findings"
)

// Fixed heuristic identifiers for supply-chain findings, per spec §4.4.2.
const (
	SupplyChainInstallScriptRuleID   = "SUPPLY_CHAIN_INSTALL_SCRIPT"
	SupplyChainRemoteFetchRuleID     = "SUPPLY_CHAIN_REMOTE_FETCH"
	SupplyChainRemoteExecRuleID      = "SUPPLY_CHAIN_REMOTE_EXEC"
	SupplyChainPermissionChangeID    = "SUPPLY_CHAIN_PERMISSION_CHANGE"
)

// installPhasePattern matches script names considered part of the package
// manager's install lifecycle.
var installPhasePattern = regexp.MustCompile(`(?i)^(pre|post)?(install|prepare|prepublish|postpublish|prepack|postpack)$`)

var remoteFetchPattern = regexp.MustCompile(`(?i)\b(curl|wget|invoke-webrequest|powershell)\b`)

var remoteExecPattern = regexp.MustCompile(`(?i)\b(curl|wget|invoke-webrequest|powershell)\b[^&|;]*\|\s*(sudo\s+)?(sh|bash)\b`)

var permissionChangePattern = regexp.MustCompile(`(?i)\b(chmod|chown)\b`)

// packageJSON is the subset of package.json this analyzer needs.
type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

// AnalyzePackageScripts implements spec §4.4.2: activated only for
// package.json content whose JSON parses. Non-JSON or non-package.json
// input yields no findings (not an error — the orchestrator routes by
// basename before calling this).
func AnalyzePackageScripts(item content.Item) []findings.Finding {
	if filepath.Base(item.VirtualPath) != "package.json" {
		return nil
	}

	var pkg packageJSON
	if err := json.Unmarshal([]byte(item.Content), &pkg); err != nil {
		return nil
	}

	var out []findings.Finding
	for name, command := range pkg.Scripts {
		out = append(out, scriptFindings(item.VirtualPath, name, command)...)
	}
	return out
}

// scriptFindings classifies a single scripts.<name>=<command> entry.
func scriptFindings(virtualPath, name, command string) []findings.Finding {
	var out []findings.Finding

	if installPhasePattern.MatchString(name) {
		out = append(out, findings.Finding{
			RuleID:   SupplyChainInstallScriptRuleID,
			Severity: findings.SeverityMedium,
			Category: "supply-chain",
			Source:   findings.SourceHeuristic,
			Message:  "install-phase script: " + name,
			File:     virtualPath,
		})

		if remoteFetchPattern.MatchString(command) {
			out = append(out, findings.Finding{
				RuleID:   SupplyChainRemoteFetchRuleID,
				Severity: findings.SeverityHigh,
				Category: "supply-chain",
				Source:   findings.SourceHeuristic,
				Message:  "install-phase script fetches a remote resource: " + name,
				File:     virtualPath,
			})
		}

		if remoteExecPattern.MatchString(command) {
			out = append(out, findings.Finding{
				RuleID:   SupplyChainRemoteExecRuleID,
				Severity: findings.SeverityCritical,
				Category: "supply-chain",
				Source:   findings.SourceHeuristic,
				Message:  "install-phase script pipes a remote fetch into a shell: " + name,
				File:     virtualPath,
			})
		}
	}

	if permissionChangePattern.MatchString(command) {
		out = append(out, findings.Finding{
			RuleID:   SupplyChainPermissionChangeID,
			Severity: findings.SeverityHigh,
			Category: "supply-chain",
			Source:   findings.SourceHeuristic,
			Message:  "script modifies file permissions or ownership: " + name,
			File:     virtualPath,
		})
	}

	return out
}
