// Package content defines the uniform scannable unit (ContentItem) that
// every target — local file, in-memory buffer, or remote MCP object — is
// converted into before the detection engine touches it.
package content

// FileType is the logical content type used to select applicable rules.
// It is a closed set; unmapped extensions fall back to Text.
type FileType string

// FileType values, per spec §4.1.
const (
	Markdown   FileType = "markdown"
	JSON       FileType = "json"
	Manifest   FileType = "manifest"
	Python     FileType = "python"
	TypeScript FileType = "typescript"
	JavaScript FileType = "javascript"
	Bash       FileType = "bash"
	Binary     FileType = "binary"
	Text       FileType = "text"
)

// Item is the uniform scannable unit produced by every content adapter.
type Item struct {
	// VirtualPath is a stable, non-empty identifier. For local files this
	// is the absolute path; for MCP objects it is
	// mcp://<host>/<kind>/<name>.
	VirtualPath string
	FileType    FileType
	// Content is the bytes to scan, already decoded to text unless
	// FileType == Binary (in which case it holds the literal "binary").
	Content string
	// OriginMeta carries adapter-specific context (MCP server URL,
	// extension version, ...). Optional.
	OriginMeta map[string]string
}

// NumLines returns the number of newline-delimited lines in Content, used
// to validate the "1 <= line <= number_of_lines" invariant in spec §8.
func (i Item) NumLines() int {
	if i.Content == "" {
		return 0
	}
	n := 1
	for _, r := range i.Content {
		if r == '\n' {
			n++
		}
	}
	return n
}
