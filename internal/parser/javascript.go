package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// javascriptParser extracts symbols from JavaScript source. The export
// keyword is the visibility convention: only exported declarations are
// public.
type javascriptParser struct {
	lang      *sitter.Language
	extractor ecmaExtractor
}

func newJavaScriptParser() *javascriptParser {
	return &javascriptParser{
		lang:      javascript.GetLanguage(),
		extractor: ecmaExtractor{ts: false},
	}
}

func (p *javascriptParser) Language() Language { return LanguageJavaScript }

func (p *javascriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	tree, err := parseTree(ctx, p.lang, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	return p.extractor.extract(tree.RootNode(), content, filePath), nil
}
