package content

import (
	"fmt"
	"io"
	"os"
)

// maxReadBytes is the hard per-file read cap from spec §4.5. Files larger
// than this are skipped with no error, not truncated.
const maxReadBytes = 5 * 1024 * 1024

// binaryPlaceholder is substituted for the content of a file that the probe
// classifies as binary, so matchers still have something to key on without
// ever decoding arbitrary bytes as text.
const binaryPlaceholder = "binary"

// ErrSkipped is returned by LoadLocalFile to signal that a file was
// deliberately not scanned (oversize, archive extension, or failed the
// binary/text probe). It is not a failure: callers should treat it as "no
// item", not log it as an error.
var ErrSkipped = fmt.Errorf("content: file skipped")

// LoadLocalFile reads path from disk and converts it into an Item, applying
// the size cap, archive exclusion, and binary probe from spec §4.5. It
// returns ErrSkipped (wrapped) when the file should be silently omitted from
// the scan, and any other error for genuine I/O failures.
func LoadLocalFile(path string) (Item, error) {
	if IsArchive(path) {
		return Item{}, fmt.Errorf("%w: %s: archive extension never scanned", ErrSkipped, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Item{}, fmt.Errorf("content: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Item{}, fmt.Errorf("content: stat %s: %w", path, err)
	}
	if info.Size() > maxReadBytes {
		return Item{}, fmt.Errorf("%w: %s: exceeds %d byte cap", ErrSkipped, path, maxReadBytes)
	}

	data, err := io.ReadAll(io.LimitReader(f, maxReadBytes+1))
	if err != nil {
		return Item{}, fmt.Errorf("content: read %s: %w", path, err)
	}

	fileType := DetectFileType(path)

	switch fileType {
	case Binary:
		if !looksBinary(data) {
			return Item{}, fmt.Errorf("%w: %s: typed binary but probe found text", ErrSkipped, path)
		}
		return Item{VirtualPath: path, FileType: Binary, Content: binaryPlaceholder}, nil
	case Text:
		if looksBinary(data) {
			return Item{}, fmt.Errorf("%w: %s: text-typed file probed binary", ErrSkipped, path)
		}
	}

	return Item{VirtualPath: path, FileType: fileType, Content: string(data)}, nil
}
