package content

import (
	"path/filepath"
	"strings"
)

// exactNameTypes maps well-known basenames to their logical type,
// overriding extension-based detection. Order matters: checked before
// extension lookups.
var exactNameTypes = map[string]FileType{
	"SKILL.md":      Markdown,
	"manifest.json": Manifest,
	"package.json":  JSON,
}

// extensionTypes maps file extensions to logical types per spec §4.1.
//
// The C-family/Go/Java/Rust/Kotlin/Swift/Ruby fold into Python is a
// deliberate simplification carried over unchanged from the source system
// (spec §9's open question): these languages are "close enough" to Python
// for regex-based pattern matching, and the mapping is not extended to any
// language the spec doesn't name.
var extensionTypes = map[string]FileType{
	".md":   Markdown,
	".mdx":  Markdown,
	".txt":  Markdown,
	".rst":  Markdown,
	".yaml": Markdown,
	".yml":  Markdown,
	".toml": Markdown,
	".ini":  Markdown,
	".cfg":  Markdown,
	".conf": Markdown,

	".json": JSON,

	".py": Python,
	".c":   Python, ".h": Python, ".cpp": Python, ".cc": Python, ".hpp": Python,
	".go": Python, ".java": Python, ".rs": Python, ".kt": Python, ".kts": Python,
	".swift": Python, ".rb": Python, ".cs": Python,

	".ts": TypeScript, ".tsx": TypeScript,

	".js": JavaScript, ".mjs": JavaScript, ".cjs": JavaScript, ".jsx": JavaScript,

	".sh": Bash, ".bash": Bash,

	".exe": Binary, ".bin": Binary, ".dll": Binary, ".so": Binary,
	".dylib": Binary, ".jar": Binary,
}

// unscannedArchiveExtensions are never scanned (spec §4.1, §4.5): they are
// excluded before a content adapter is even invoked.
var unscannedArchiveExtensions = map[string]bool{
	".crx": true,
	".xpi": true,
	".zip": true,
}

// IsArchive reports whether path has an extension this system refuses to
// scan regardless of content.
func IsArchive(path string) bool {
	return unscannedArchiveExtensions[strings.ToLower(filepath.Ext(path))]
}

// DetectFileType classifies path into a logical FileType per the anchors
// in spec §4.1. d.ts is special-cased because filepath.Ext would otherwise
// return ".ts" for it, which happens to be the right answer anyway, but the
// literal suffix is handled explicitly to document the intent.
func DetectFileType(path string) FileType {
	base := filepath.Base(path)
	if t, ok := exactNameTypes[base]; ok {
		return t
	}

	if strings.HasSuffix(base, ".d.ts") {
		return TypeScript
	}

	ext := strings.ToLower(filepath.Ext(base))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}

	return Text
}
