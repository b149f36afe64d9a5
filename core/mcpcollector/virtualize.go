package mcpcollector

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/vetra-sec/vetra/core/content"
)

// hostOf extracts the hostname a virtual path is rooted under, per
// spec §4.9 ("host = server URL hostname").
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}

// toolItem virtualizes one MCP tool as
// mcp://<host>/tools/<name>, a markdown document serializing its name,
// description, and input schema.
func toolItem(host, name, description string, inputSchema json.RawMessage) content.Item {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n## Input schema\n\n```json\n%s\n```\n", name, description, prettyOrRaw(inputSchema))
	return content.Item{
		VirtualPath: fmt.Sprintf("mcp://%s/tools/%s", host, name),
		FileType:    content.Markdown,
		Content:     b.String(),
		OriginMeta:  map[string]string{"mcp_kind": "tool", "mcp_host": host},
	}
}

// promptArg mirrors the fields of an MCP prompt argument definition that
// vetra virtualizes.
type promptArg struct {
	Name        string
	Description string
	Required    bool
}

// promptItem virtualizes one MCP prompt as mcp://<host>/prompts/<name>, a
// markdown document with name, description, argument metadata, and
// template text when the server provided one.
func promptItem(host, name, description string, args []promptArg, template string) content.Item {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n## Arguments\n\n", name, description)
	for _, a := range args {
		req := ""
		if a.Required {
			req = " (required)"
		}
		fmt.Fprintf(&b, "- `%s`%s: %s\n", a.Name, req, a.Description)
	}
	if template != "" {
		fmt.Fprintf(&b, "\n## Template\n\n%s\n", template)
	}
	return content.Item{
		VirtualPath: fmt.Sprintf("mcp://%s/prompts/%s", host, name),
		FileType:    content.Markdown,
		Content:     b.String(),
		OriginMeta:  map[string]string{"mcp_kind": "prompt", "mcp_host": host},
	}
}

// resourceFileType maps a resource's advertised MIME type to a content
// FileType, per spec §4.9: application/json becomes JSON, everything else
// (including unread resources) is treated as markdown metadata.
func resourceFileType(mimeType string) content.FileType {
	if mimeType == "application/json" {
		return content.JSON
	}
	return content.Markdown
}

// resourceItem virtualizes one MCP resource as
// mcp://<host>/resources/<name>. body holds the served bytes when the
// resource was read (within MIME allowlist and size cap); otherwise it
// holds metadata-only markdown describing the resource.
func resourceItem(host, name, uri, mimeType, body string) content.Item {
	return content.Item{
		VirtualPath: fmt.Sprintf("mcp://%s/resources/%s", host, name),
		FileType:    resourceFileType(mimeType),
		Content:     body,
		OriginMeta:  map[string]string{"mcp_kind": "resource", "mcp_host": host, "mcp_uri": uri, "mcp_mime": mimeType},
	}
}

// resourceMetadataOnly renders a resource that was not read (unsupported
// MIME type, disabled by options, or over the size cap) as a markdown
// description instead of its body.
func resourceMetadataOnly(name, uri, mimeType, reason string) string {
	return fmt.Sprintf("# %s\n\nuri: %s\nmime_type: %s\n\nresource not read: %s\n", name, uri, mimeType, reason)
}

// instructionsItem virtualizes a server's top-level instructions as
// mcp://<host>/instructions.md.
func instructionsItem(host, instructions string) content.Item {
	return content.Item{
		VirtualPath: fmt.Sprintf("mcp://%s/instructions.md", host),
		FileType:    content.Markdown,
		Content:     instructions,
		OriginMeta:  map[string]string{"mcp_kind": "instructions", "mcp_host": host},
	}
}

func prettyOrRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}
