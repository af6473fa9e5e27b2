package parser

import (
	"context"
	"fmt"
)

// Registry maps a language to its registered parser. The table is built
// once at startup and passed explicitly to the pipeline; it is never
// mutated afterwards.
type Registry struct {
	parsers map[Language]LanguageParser
}

// NewRegistry builds the full parser table: tree-sitter parsers for Go,
// Python, JavaScript, TypeScript and Java, and degraded line-based
// parsers for YAML, JSON, Markdown, SQL and Dockerfile.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[Language]LanguageParser)}
	for _, p := range []LanguageParser{
		newGoParser(),
		newPythonParser(),
		newJavaScriptParser(),
		newTypeScriptParser(),
		newJavaParser(),
		newYAMLParser(),
		newJSONParser(),
		newMarkdownParser(),
		newSQLParser(),
		newDockerfileParser(),
	} {
		r.parsers[p.Language()] = p
	}
	return r
}

// Get returns the parser registered for lang.
func (r *Registry) Get(lang Language) (LanguageParser, bool) {
	p, ok := r.parsers[lang]
	return p, ok
}

// ParseFile detects the file's language and dispatches to the registered
// parser, returning the detected language alongside the result. An
// unknown language returns (nil, LanguageUnknown, nil): the file is
// simply not a module, which callers must not treat as an error.
func (r *Registry) ParseFile(ctx context.Context, content []byte, filePath string) (*ParseResult, Language, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, LanguageUnknown, nil
	}

	p, ok := r.Get(lang)
	if !ok {
		return nil, lang, fmt.Errorf("no parser registered for language %s", lang)
	}

	result, err := p.Parse(ctx, content, filePath)
	return result, lang, err
}
