package rules

import (
	"crypto/sha256"
	"encoding/hex"
)

// Version returns a digest of the compiled rule corpus, used by the scan
// cache to invalidate entries when the corpus changes (spec §4.6: "a
// version string derived from the rule-file contents at compiler output
// time"). It is computed from each rule's identity-determining fields
// rather than raw file bytes, so two corpora that parse to the same rules
// hash identically regardless of YAML formatting.
func Version(rs *RuleSet) string {
	h := sha256.New()
	for _, r := range rs.Rules() {
		h.Write([]byte(r.ID))
		h.Write([]byte{0})
		h.Write([]byte(r.Category))
		h.Write([]byte{0})
		h.Write([]byte(r.Severity))
		h.Write([]byte{0})
		for _, ft := range r.FileTypes {
			h.Write([]byte(ft))
			h.Write([]byte{0})
		}
		for _, c := range r.Compiled {
			h.Write([]byte(c.String()))
			h.Write([]byte{0})
		}
		for _, e := range r.ExcludePatterns {
			h.Write([]byte(e.String()))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}
