package content

import (
	"bytes"
	"strings"
	"testing"
)

func TestLooksBinary_NullByte(t *testing.T) {
	data := []byte("hello\x00world")
	if !looksBinary(data) {
		t.Error("expected null byte to trigger binary detection")
	}
}

func TestLooksBinary_PlainText(t *testing.T) {
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 10))
	if looksBinary(data) {
		t.Error("expected plain text to not be detected as binary")
	}
}

func TestLooksBinary_HighControlByteRatio(t *testing.T) {
	data := bytes.Repeat([]byte{0x01, 0x02, 0x03}, 200)
	if !looksBinary(data) {
		t.Error("expected high ratio of suspicious bytes to trigger binary detection")
	}
}

func TestLooksBinary_TabsNewlinesAllowed(t *testing.T) {
	data := []byte("line one\tvalue\nline two\tvalue\n")
	if looksBinary(data) {
		t.Error("tabs and newlines are not suspicious bytes")
	}
}

func TestLooksBinary_OnlyProbesLeadingWindow(t *testing.T) {
	data := append([]byte(strings.Repeat("a", probeWindow)), bytes.Repeat([]byte{0x00}, 1000)...)
	if looksBinary(data) {
		t.Error("bytes beyond the probe window must not affect the verdict")
	}
}

func TestLooksBinary_Empty(t *testing.T) {
	if looksBinary(nil) {
		t.Error("empty content should not be flagged binary")
	}
}
