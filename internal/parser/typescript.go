package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// typescriptParser extracts symbols from TypeScript source, including
// interfaces, type aliases, enums and type-only imports. The tsx dialect
// shares the grammar's node names, so .tsx files parse with the same
// extraction rules.
type typescriptParser struct {
	lang      *sitter.Language
	extractor ecmaExtractor
}

func newTypeScriptParser() *typescriptParser {
	return &typescriptParser{
		lang:      typescript.GetLanguage(),
		extractor: ecmaExtractor{ts: true},
	}
}

func (p *typescriptParser) Language() Language { return LanguageTypeScript }

func (p *typescriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	tree, err := parseTree(ctx, p.lang, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return p.extractor.extract(tree.RootNode(), content, filePath), nil
}
