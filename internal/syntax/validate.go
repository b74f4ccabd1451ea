// Package syntax checks generated file content before it lands in the
// workspace. Content is parsed with tree-sitter per extension and any
// syntax errors are surfaced as structured diagnostics. The write
// itself is never blocked; the orchestration layer decides what to do
// with a broken file.
package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	sqllang "github.com/smacker/go-tree-sitter/sql"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Diagnostic describes one syntax error location in a file.
type Diagnostic struct {
	Path    string
	Line    uint32 // 0-indexed
	Column  uint32 // 0-indexed
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.Path, d.Line+1, d.Column+1, d.Message)
}

// Check parses content with the language inferred from path's extension
// and returns a diagnostic per ERROR or MISSING node. Unknown
// extensions pass through with no diagnostics.
func Check(content []byte, path string) []Diagnostic {
	lang := languageForPath(path)
	if lang == nil {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return []Diagnostic{{Path: path, Message: fmt.Sprintf("parse failed: %v", err)}}
	}

	root := tree.RootNode()
	if root == nil || !root.HasError() {
		return nil
	}

	var diags []Diagnostic
	collectErrors(root, path, &diags)
	if len(diags) == 0 {
		diags = append(diags, Diagnostic{Path: path, Message: "syntax tree contains errors"})
	}
	return diags
}

// collectErrors gathers all ERROR/MISSING nodes, not recursing into the
// children of an error node.
func collectErrors(node *sitter.Node, path string, diags *[]Diagnostic) {
	if node.IsError() || node.IsMissing() {
		*diags = append(*diags, Diagnostic{
			Path:    path,
			Line:    uint32(node.StartPoint().Row),
			Column:  uint32(node.StartPoint().Column),
			Message: "syntax error",
		})
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, path, diags)
		}
	}
}

// languageForPath maps file extensions to tree-sitter languages.
func languageForPath(path string) *sitter.Language {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".go":
		return golang.GetLanguage()
	case ".py":
		return python.GetLanguage()
	case ".js", ".jsx", ".mjs":
		return javascript.GetLanguage()
	case ".ts", ".tsx":
		return typescript.GetLanguage()
	case ".rs":
		return rust.GetLanguage()
	case ".sql":
		return sqllang.GetLanguage()
	default:
		return nil
	}
}
