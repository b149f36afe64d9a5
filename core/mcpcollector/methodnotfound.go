package mcpcollector

import "strings"

// isMethodNotFound reports whether err represents a JSON-RPC -32601 (method
// not found) response. Servers that don't implement an optional method
// (prompts/list, resources/list) return this, and spec §4.9 requires the
// collector to degrade that single category to an empty list rather than
// fail the whole collection.
func isMethodNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "-32601") || strings.Contains(msg, "method not found")
}
