// Package parser extracts a shallow symbol table from source files:
// declarations with visibility, doc comments and signatures, plus import
// and export records. AST-backed parsers use tree-sitter; config and
// markup languages get line-oriented degraded parsers that never fail.
package parser

import (
	"context"

	"github.com/repolens/repolens/internal/manifest"
)

// ParseResult is the output of one parser invocation for one file.
type ParseResult struct {
	Symbols   []manifest.Symbol
	Imports   []manifest.ImportInfo
	Exports   []manifest.ExportInfo
	ModuleDoc *manifest.ModuleDoc
}

// LanguageParser is implemented once per supported language. Parsers are
// stateless per invocation and safe for concurrent use.
type LanguageParser interface {
	Language() Language
	Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error)
}
