package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/repolens/repolens/internal/manifest"
)

// javaParser extracts symbols from Java source. Visibility follows the
// access modifier keywords; declarations without one are package-private
// and map to internal.
type javaParser struct {
	lang *sitter.Language
}

func newJavaParser() *javaParser {
	return &javaParser{lang: java.GetLanguage()}
}

func (p *javaParser) Language() Language { return LanguageJava }

func (p *javaParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	tree, err := parseTree(ctx, p.lang, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &ParseResult{}
	root := tree.RootNode()

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "package_declaration":
			result.ModuleDoc = moduleDocFrom(node, content)
		case "import_declaration":
			if imp := p.parseImport(node, content); imp != nil {
				result.Imports = append(result.Imports, *imp)
			}
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			result.Symbols = append(result.Symbols, p.parseTypeDecl(node, content, filePath)...)
		}
	}

	// Without a package clause the module doc hangs off the first type.
	if result.ModuleDoc == nil && root.NamedChildCount() > 0 {
		result.ModuleDoc = moduleDocFrom(root.NamedChild(0), content)
	}

	result.Symbols = linkMembers(result.Symbols)

	for _, sym := range result.Symbols {
		if sym.Exported && sym.ParentID == "" {
			result.Exports = append(result.Exports, manifest.ExportInfo{
				Name:     sym.Name,
				SymbolID: sym.ID,
			})
		}
	}

	return result, nil
}

func (p *javaParser) parseImport(node *sitter.Node, source []byte) *manifest.ImportInfo {
	var path string
	wildcard := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "scoped_identifier", "identifier":
			if path == "" {
				path = child.Content(source)
			}
		case "asterisk":
			wildcard = true
		}
	}
	if path == "" {
		return nil
	}

	spec := manifest.ImportSpecifier{Name: lastDottedPart(path)}
	if wildcard {
		spec = manifest.ImportSpecifier{Name: "*", Namespace: true}
	}

	return &manifest.ImportInfo{
		Source:     path,
		Specifiers: []manifest.ImportSpecifier{spec},
	}
}

func (p *javaParser) parseTypeDecl(node *sitter.Node, source []byte, filePath string) []manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	vis := javaVisibility(node, source)

	kind := manifest.KindClass
	switch node.Type() {
	case "interface_declaration":
		kind = manifest.KindInterface
	case "enum_declaration":
		kind = manifest.KindEnum
	}

	sym := manifest.Symbol{
		ID:         symbolID(filePath, name),
		Name:       name,
		Kind:       kind,
		Visibility: vis,
		Location:   nodeLocation(node, filePath),
		Exported:   vis == manifest.VisibilityPublic,
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}

	if super := node.ChildByFieldName("superclass"); super != nil {
		sym.Extends = strings.TrimSpace(strings.TrimPrefix(super.Content(source), "extends"))
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		walkTree(ifaces, func(n *sitter.Node) {
			if n.Type() == "type_identifier" || n.Type() == "generic_type" {
				sym.Implements = append(sym.Implements, n.Content(source))
			}
		})
	}

	symbols := []manifest.Symbol{sym}
	if body := node.ChildByFieldName("body"); body != nil {
		symbols = append(symbols, p.parseMembers(body, source, filePath, name)...)
	}
	return symbols
}

func (p *javaParser) parseMembers(body *sitter.Node, source []byte, filePath, parent string) []manifest.Symbol {
	var symbols []manifest.Symbol

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration", "constructor_declaration":
			if sym := p.parseMethod(member, source, filePath, parent); sym != nil {
				symbols = append(symbols, *sym)
			}
		case "field_declaration":
			symbols = append(symbols, p.parseFields(member, source, filePath, parent)...)
		}
	}
	return symbols
}

func (p *javaParser) parseMethod(node *sitter.Node, source []byte, filePath, parent string) *manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	vis := javaVisibility(node, source)

	sym := &manifest.Symbol{
		ID:         memberID(filePath, parent, name),
		Name:       name,
		Kind:       manifest.KindMethod,
		Visibility: vis,
		Location:   nodeLocation(node, filePath),
		Exported:   vis == manifest.VisibilityPublic,
		ParentID:   symbolID(filePath, parent),
		Parameters: p.parseParameters(node.ChildByFieldName("parameters"), source),
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		sym.ReturnType = typeNode.Content(source)
	}
	return sym
}

func (p *javaParser) parseParameters(node *sitter.Node, source []byte) []manifest.ParamInfo {
	if node == nil {
		return nil
	}

	var params []manifest.ParamInfo
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "formal_parameter" && child.Type() != "spread_parameter" {
			continue
		}
		var param manifest.ParamInfo
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			param.Name = nameNode.Content(source)
		}
		if typeNode := child.ChildByFieldName("type"); typeNode != nil {
			param.Type = typeNode.Content(source)
		}
		if param.Name != "" {
			params = append(params, param)
		}
	}
	return params
}

func (p *javaParser) parseFields(node *sitter.Node, source []byte, filePath, parent string) []manifest.Symbol {
	vis := javaVisibility(node, source)
	typeName := ""
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		typeName = typeNode.Content(source)
	}

	var symbols []manifest.Symbol
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(source)

		symbols = append(symbols, manifest.Symbol{
			ID:         memberID(filePath, parent, name),
			Name:       name,
			Kind:       manifest.KindProperty,
			Visibility: vis,
			Location:   nodeLocation(node, filePath),
			Exported:   vis == manifest.VisibilityPublic,
			ParentID:   symbolID(filePath, parent),
			ReturnType: typeName,
			Doc:        docComment(node, source),
		})
	}
	return symbols
}

// javaVisibility reads the access modifier off a declaration's modifiers
// node. No modifier means package-private.
func javaVisibility(node *sitter.Node, source []byte) manifest.Visibility {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "modifiers" {
			continue
		}
		mods := child.Content(source)
		switch {
		case strings.Contains(mods, "public"):
			return manifest.VisibilityPublic
		case strings.Contains(mods, "private"):
			return manifest.VisibilityPrivate
		case strings.Contains(mods, "protected"):
			return manifest.VisibilityProtected
		}
		break
	}
	return manifest.VisibilityInternal
}
