package mcpcollector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	sdk_client "github.com/mark3labs/mcp-go/client"
	sdk_mcp "github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/time/rate"

	"github.com/vetra-sec/vetra/core/content"
)

// Collector retrieves and virtualizes the contents of a single MCP server
// over HTTP (JSON-RPC 2.0, streamable transport), per spec §4.9. A
// Collector is safe for concurrent use by multiple goroutines once
// connected.
type Collector struct {
	cfg  ServerConfig
	opts Options

	mu           sync.RWMutex
	inner        sdk_client.MCPClient
	instructions string

	limiter *rate.Limiter
}

// NewCollector builds an unconnected Collector for cfg. Call Connect before
// Collect.
func NewCollector(cfg ServerConfig, opts Options) *Collector {
	opts = opts.withDefaults()
	c := &Collector{cfg: cfg, opts: opts}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), opts.RequestsPerMinute)
	}
	return c
}

// Connect opens the HTTP transport and performs the MCP initialize
// handshake. It must be called before Collect.
func (c *Collector) Connect(ctx context.Context) error {
	cli, err := sdk_client.NewStreamableHttpClient(c.cfg.URL)
	if err != nil {
		return newTransportError(c.cfg.Name, "dial", err)
	}
	if err := cli.Start(ctx); err != nil {
		return newTransportError(c.cfg.Name, "start", err)
	}

	result, err := cli.Initialize(ctx, sdk_mcp.InitializeRequest{
		Params: sdk_mcp.InitializeParams{
			ProtocolVersion: sdk_mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: sdk_mcp.Implementation{
				Name:    "vetra",
				Version: "0.1.0",
			},
		},
	})
	if err != nil {
		_ = cli.Close()
		return newTransportError(c.cfg.Name, "initialize", err)
	}

	c.mu.Lock()
	c.inner = cli
	c.instructions = result.Instructions
	c.mu.Unlock()
	return nil
}

// Close terminates the transport connection.
func (c *Collector) Close() error {
	c.mu.Lock()
	inner := c.inner
	c.inner = nil
	c.mu.Unlock()
	if inner == nil {
		return nil
	}
	return inner.Close()
}

func (c *Collector) client() (sdk_client.MCPClient, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.inner == nil {
		return nil, fmt.Errorf("mcpcollector: %s: not connected", c.cfg.Name)
	}
	return c.inner, nil
}

// await blocks for rate-limiter permission and applies the per-request
// timeout, per spec §4.9's 30s default.
func (c *Collector) await(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	return reqCtx, cancel, nil
}

// Collect retrieves every category named in opts.Scope and returns the
// virtualized content.Items. A category whose method the server doesn't
// implement (-32601) degrades to zero items for that category; every other
// failure is returned as a *TransportError.
func (c *Collector) Collect(ctx context.Context) ([]content.Item, error) {
	inner, err := c.client()
	if err != nil {
		return nil, newTransportError(c.cfg.Name, "collect", err)
	}
	host := hostOf(c.cfg.URL)

	var items []content.Item

	if c.opts.hasScope(ScopeInstructions) {
		c.mu.RLock()
		instructions := c.instructions
		c.mu.RUnlock()
		if instructions != "" {
			items = append(items, instructionsItem(host, instructions))
		}
	}

	if c.opts.hasScope(ScopeTools) {
		toolItems, err := c.collectTools(ctx, inner, host)
		if err != nil {
			return nil, err
		}
		items = append(items, toolItems...)
	}

	if c.opts.hasScope(ScopePrompts) {
		promptItems, err := c.collectPrompts(ctx, inner, host)
		if err != nil {
			return nil, err
		}
		items = append(items, promptItems...)
	}

	if c.opts.hasScope(ScopeResources) {
		resourceItems, err := c.collectResources(ctx, inner, host)
		if err != nil {
			return nil, err
		}
		items = append(items, resourceItems...)
	}

	return items, nil
}

func (c *Collector) collectTools(ctx context.Context, inner sdk_client.MCPClient, host string) ([]content.Item, error) {
	reqCtx, cancel, err := c.await(ctx)
	if err != nil {
		return nil, newTransportError(c.cfg.Name, "tools/list", err)
	}
	defer cancel()

	result, err := inner.ListTools(reqCtx, sdk_mcp.ListToolsRequest{})
	if err != nil {
		if isMethodNotFound(err) {
			return nil, nil
		}
		return nil, newTransportError(c.cfg.Name, "tools/list", err)
	}

	items := make([]content.Item, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema, merr := json.Marshal(t.InputSchema)
		if merr != nil {
			schema = []byte("{}")
		}
		items = append(items, toolItem(host, t.Name, t.Description, schema))
	}
	return items, nil
}

func (c *Collector) collectPrompts(ctx context.Context, inner sdk_client.MCPClient, host string) ([]content.Item, error) {
	reqCtx, cancel, err := c.await(ctx)
	if err != nil {
		return nil, newTransportError(c.cfg.Name, "prompts/list", err)
	}
	defer cancel()

	result, err := inner.ListPrompts(reqCtx, sdk_mcp.ListPromptsRequest{})
	if err != nil {
		if isMethodNotFound(err) {
			return nil, nil
		}
		return nil, newTransportError(c.cfg.Name, "prompts/list", err)
	}

	items := make([]content.Item, 0, len(result.Prompts))
	for _, p := range result.Prompts {
		args := make([]promptArg, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			args = append(args, promptArg{Name: a.Name, Description: a.Description, Required: a.Required})
		}
		items = append(items, promptItem(host, p.Name, p.Description, args, ""))
	}
	return items, nil
}

func (c *Collector) collectResources(ctx context.Context, inner sdk_client.MCPClient, host string) ([]content.Item, error) {
	reqCtx, cancel, err := c.await(ctx)
	if err != nil {
		return nil, newTransportError(c.cfg.Name, "resources/list", err)
	}
	defer cancel()

	result, err := inner.ListResources(reqCtx, sdk_mcp.ListResourcesRequest{})
	if err != nil {
		if isMethodNotFound(err) {
			return nil, nil
		}
		return nil, newTransportError(c.cfg.Name, "resources/list", err)
	}

	items := make([]content.Item, 0, len(result.Resources))
	for _, r := range result.Resources {
		if !c.opts.ReadResources || !mimeAllowed(c.opts.AllowedMIMETypes, r.MIMEType) {
			reason := "reading disabled"
			if c.opts.ReadResources {
				reason = fmt.Sprintf("mime type %q not allowed", r.MIMEType)
			}
			items = append(items, resourceItem(host, r.Name, r.URI, r.MIMEType, resourceMetadataOnly(r.Name, r.URI, r.MIMEType, reason)))
			continue
		}

		body, read, err := c.readResource(ctx, inner, r.URI)
		if err != nil {
			if isMethodNotFound(err) {
				items = append(items, resourceItem(host, r.Name, r.URI, r.MIMEType, resourceMetadataOnly(r.Name, r.URI, r.MIMEType, "resources/read not supported")))
				continue
			}
			return nil, newTransportError(c.cfg.Name, "resources/read", err)
		}
		if !read {
			items = append(items, resourceItem(host, r.Name, r.URI, r.MIMEType, resourceMetadataOnly(r.Name, r.URI, r.MIMEType, "exceeds size cap")))
			continue
		}
		items = append(items, resourceItem(host, r.Name, r.URI, r.MIMEType, body))
	}
	return items, nil
}

// readResource fetches one resource's contents. read is false when the
// server-reported payload exceeds opts.MaxResourceBytes, in which case the
// resource is still virtualized but as metadata-only.
func (c *Collector) readResource(ctx context.Context, inner sdk_client.MCPClient, uri string) (body string, read bool, err error) {
	reqCtx, cancel, err := c.await(ctx)
	if err != nil {
		return "", false, err
	}
	defer cancel()

	req := sdk_mcp.ReadResourceRequest{}
	req.Params.URI = uri

	result, err := inner.ReadResource(reqCtx, req)
	if err != nil {
		return "", false, err
	}

	var b []byte
	for _, item := range result.Contents {
		switch tc := item.(type) {
		case sdk_mcp.TextResourceContents:
			b = append(b, tc.Text...)
		case sdk_mcp.BlobResourceContents:
			b = append(b, tc.Blob...)
		}
		if int64(len(b)) > c.opts.MaxResourceBytes {
			return "", false, nil
		}
	}
	return string(b), true, nil
}

func mimeAllowed(allowed []string, mime string) bool {
	for _, a := range allowed {
		if a == mime {
			return true
		}
	}
	return false
}

