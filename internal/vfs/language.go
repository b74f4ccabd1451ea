package vfs

import (
	"path/filepath"
	"strings"
)

// LanguageForPath returns an informational language tag inferred from the
// path's extension. The tag is never authoritative; it exists so editor
// and preview surfaces can pick a highlighter without sniffing content.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".rs":
		return "rust"
	case ".sql":
		return "sql"
	case ".yaml", ".yml":
		return "yaml"
	case ".tf", ".hcl":
		return "terraform"
	case ".json":
		return "json"
	case ".css":
		return "css"
	case ".html", ".htm":
		return "html"
	case ".md":
		return "markdown"
	default:
		return "plaintext"
	}
}
