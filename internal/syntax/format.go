package syntax

import (
	"strings"

	"mvdan.cc/gofumpt/format"
)

// FormatGo formats Go source in-memory with gofumpt. Non-Go paths and
// unformattable content come back unchanged: a generated file that
// does not parse yet is stored as-is and reported via Check instead.
func FormatGo(content []byte, path string) []byte {
	if !strings.HasSuffix(path, ".go") {
		return content
	}
	formatted, err := format.Source(content, format.Options{})
	if err != nil {
		return content
	}
	return formatted
}
