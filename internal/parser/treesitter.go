package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/repolens/repolens/internal/manifest"
)

// parseTree parses content with a fresh tree-sitter parser. A parser
// instance is not safe for concurrent use, so each invocation gets its
// own; construction is cheap relative to parsing.
func parseTree(ctx context.Context, lang *sitter.Language, content []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(lang)

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	return tree, nil
}

// walkTree visits every node in depth-first order.
func walkTree(node *sitter.Node, fn func(*sitter.Node)) {
	cursor := sitter.NewTreeCursor(node)
	defer cursor.Close()

	for {
		fn(cursor.CurrentNode())

		if cursor.GoToFirstChild() {
			continue
		}

		for {
			if cursor.GoToNextSibling() {
				break
			}
			if !cursor.GoToParent() {
				return
			}
		}
	}
}

// symbolID builds the stable identifier for a top-level symbol.
func symbolID(filePath, name string) string {
	return filePath + ":" + name
}

// memberID builds the stable identifier for a member symbol.
func memberID(filePath, parent, name string) string {
	return filePath + ":" + parent + "." + name
}

// nodeLocation converts tree-sitter points to a 1-indexed Location.
func nodeLocation(node *sitter.Node, filePath string) manifest.Location {
	return manifest.Location{
		File:      filePath,
		Line:      int(node.StartPoint().Row) + 1,
		Column:    int(node.StartPoint().Column) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		EndColumn: int(node.EndPoint().Column) + 1,
	}
}

// docComment collects the contiguous run of comment siblings directly
// above node at the same syntactic level. A blank line or any other
// sibling ends the run.
func docComment(node *sitter.Node, source []byte) string {
	var lines []string
	wantRow := int(node.StartPoint().Row) - 1

	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if !isCommentNode(prev) || int(prev.EndPoint().Row) != wantRow {
			break
		}
		lines = append([]string{cleanComment(prev.Content(source))}, lines...)
		wantRow = int(prev.StartPoint().Row) - 1
	}

	return strings.Join(lines, "\n")
}

func isCommentNode(node *sitter.Node) bool {
	switch node.Type() {
	case "comment", "line_comment", "block_comment":
		return true
	}
	return false
}

// cleanComment strips comment markers while preserving line breaks of
// block comments.
func cleanComment(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "/*") {
		raw = strings.TrimPrefix(raw, "/**")
		raw = strings.TrimPrefix(raw, "/*")
		raw = strings.TrimSuffix(raw, "*/")
		var out []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "*")
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, line)
			}
		}
		return strings.Join(out, "\n")
	}

	for _, marker := range []string{"///", "//", "#"} {
		if strings.HasPrefix(raw, marker) {
			return strings.TrimSpace(strings.TrimPrefix(raw, marker))
		}
	}
	return raw
}

// signatureOf renders the declaration header as a single line: node
// content up to (excluding) its body, whitespace collapsed.
func signatureOf(node *sitter.Node, source []byte) string {
	end := node.EndByte()
	if body := node.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}

	sig := string(source[node.StartByte():end])
	sig = collapseWhitespace(sig)
	sig = strings.TrimSuffix(sig, "{")
	sig = strings.TrimSuffix(sig, ":")
	sig = strings.TrimSpace(sig)

	const maxSignature = 200
	if len(sig) > maxSignature {
		sig = sig[:maxSignature] + "..."
	}
	return sig
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// visibilityOf maps the boolean export convention of Go/Python/JS style
// languages onto the visibility enum. Java overrides this with its
// modifier keywords.
func visibilityOf(exported bool) manifest.Visibility {
	if exported {
		return manifest.VisibilityPublic
	}
	return manifest.VisibilityPrivate
}

// linkMembers fills ChildIDs on parent symbols and clears ParentID
// references that do not resolve within the same module, keeping the
// parent/child invariant intact.
func linkMembers(symbols []manifest.Symbol) []manifest.Symbol {
	index := make(map[string]int, len(symbols))
	for i, sym := range symbols {
		index[sym.ID] = i
	}

	for i := range symbols {
		if symbols[i].ParentID == "" {
			continue
		}
		pi, ok := index[symbols[i].ParentID]
		if !ok {
			symbols[i].ParentID = ""
			continue
		}
		symbols[pi].ChildIDs = append(symbols[pi].ChildIDs, symbols[i].ID)
	}

	return symbols
}

// moduleDocFrom derives the module-level doc from the comment run
// preceding the first substantive declaration.
func moduleDocFrom(first *sitter.Node, source []byte) *manifest.ModuleDoc {
	if first == nil {
		return nil
	}
	text := docComment(first, source)
	if text == "" {
		return nil
	}
	return &manifest.ModuleDoc{
		Summary: firstLine(text),
		Text:    text,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
