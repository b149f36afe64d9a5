// Package mcpcollector implements the JSON-RPC 2.0 client that retrieves
// tools, prompts, resources, and instructions from an MCP server over HTTP
// and virtualizes them into content.Items, per spec §4.9.
package mcpcollector

import "time"

// Scope names the categories of MCP object the collector retrieves.
type Scope string

const (
	ScopeTools        Scope = "tools"
	ScopeInstructions Scope = "instructions"
	ScopePrompts      Scope = "prompts"
	ScopeResources    Scope = "resources"
)

// DefaultScope is the set of categories retrieved when none is specified,
// per spec §4.9.
func DefaultScope() []Scope {
	return []Scope{ScopeTools, ScopeInstructions, ScopePrompts}
}

// DefaultAllowedMIMETypes is the default resources/read allowlist.
func DefaultAllowedMIMETypes() []string {
	return []string{"text/plain", "text/markdown", "text/html", "application/json"}
}

// DefaultMaxResourceBytes is the per-resource byte cap applied to
// resources/read responses.
const DefaultMaxResourceBytes = 1 * 1024 * 1024

// DefaultRequestTimeout is the per-call timeout applied to every JSON-RPC
// request issued by the collector.
const DefaultRequestTimeout = 30 * time.Second

// ServerConfig describes one MCP server endpoint to collect from.
type ServerConfig struct {
	// Name identifies the server in multi-server mode (e.g. for error
	// attribution); it does not affect the URL contacted.
	Name string
	// URL is the server's HTTP endpoint.
	URL string
}

// Options configures a Collector.
type Options struct {
	Scope              []Scope
	ReadResources      bool
	AllowedMIMETypes   []string
	MaxResourceBytes   int64
	RequestTimeout     time.Duration
	RequestsPerMinute  int // 0 disables rate limiting
}

// withDefaults fills in zero-valued fields of opts with the package
// defaults.
func (o Options) withDefaults() Options {
	if o.Scope == nil {
		o.Scope = DefaultScope()
	}
	if o.AllowedMIMETypes == nil {
		o.AllowedMIMETypes = DefaultAllowedMIMETypes()
	}
	if o.MaxResourceBytes <= 0 {
		o.MaxResourceBytes = DefaultMaxResourceBytes
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	return o
}

func (o Options) hasScope(s Scope) bool {
	for _, want := range o.Scope {
		if want == s {
			return true
		}
	}
	return false
}
