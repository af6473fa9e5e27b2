package parser

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/repolens/repolens/internal/manifest"
)

// goParser extracts symbols from Go source. Visibility follows the
// capitalization rule: an uppercase first letter means exported.
type goParser struct {
	lang *sitter.Language
}

func newGoParser() *goParser {
	return &goParser{lang: golang.GetLanguage()}
}

func (p *goParser) Language() Language { return LanguageGo }

func (p *goParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
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
		case "package_clause":
			result.ModuleDoc = moduleDocFrom(node, content)
		case "import_declaration":
			result.Imports = append(result.Imports, p.parseImports(node, content)...)
		case "function_declaration":
			if sym := p.parseFunction(node, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, *sym)
			}
		case "method_declaration":
			if sym := p.parseMethod(node, content, filePath); sym != nil {
				result.Symbols = append(result.Symbols, *sym)
			}
		case "type_declaration":
			result.Symbols = append(result.Symbols, p.parseTypeDecl(node, content, filePath)...)
		case "const_declaration":
			result.Symbols = append(result.Symbols, p.parseValueDecl(node, content, filePath, manifest.KindConstant)...)
		case "var_declaration":
			result.Symbols = append(result.Symbols, p.parseValueDecl(node, content, filePath, manifest.KindVariable)...)
		}
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

func (p *goParser) parseImports(node *sitter.Node, source []byte) []manifest.ImportInfo {
	var imports []manifest.ImportInfo

	walkTree(node, func(n *sitter.Node) {
		if n.Type() != "import_spec" {
			return
		}

		pathNode := n.ChildByFieldName("path")
		if pathNode == nil {
			return
		}
		importPath := strings.Trim(pathNode.Content(source), `"`)

		spec := manifest.ImportSpecifier{
			Name:      importPath[strings.LastIndex(importPath, "/")+1:],
			Namespace: true,
		}
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			spec.Alias = nameNode.Content(source)
			spec.Name = spec.Alias
		}

		imports = append(imports, manifest.ImportInfo{
			Source:     importPath,
			Specifiers: []manifest.ImportSpecifier{spec},
		})
	})

	return imports
}

func (p *goParser) parseFunction(node *sitter.Node, source []byte, filePath string) *manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	exported := goExported(name)

	sym := &manifest.Symbol{
		ID:         symbolID(filePath, name),
		Name:       name,
		Kind:       manifest.KindFunction,
		Visibility: visibilityOf(exported),
		Location:   nodeLocation(node, filePath),
		Exported:   exported,
		Parameters: p.parseParameters(node.ChildByFieldName("parameters"), source),
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}
	if result := node.ChildByFieldName("result"); result != nil {
		sym.ReturnType = result.Content(source)
	}
	return sym
}

func (p *goParser) parseMethod(node *sitter.Node, source []byte, filePath string) *manifest.Symbol {
	sym := p.parseFunction(node, source, filePath)
	if sym == nil {
		return nil
	}
	sym.Kind = manifest.KindMethod

	if recv := node.ChildByFieldName("receiver"); recv != nil {
		recvType := receiverTypeName(recv, source)
		if recvType != "" {
			sym.ID = memberID(filePath, recvType, sym.Name)
			sym.ParentID = symbolID(filePath, recvType)
		}
	}
	return sym
}

// receiverTypeName extracts the bare type name from a method receiver,
// dropping pointers and type parameters.
func receiverTypeName(recv *sitter.Node, source []byte) string {
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		decl := recv.NamedChild(i)
		if decl.Type() != "parameter_declaration" {
			continue
		}
		typeNode := decl.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		name := strings.TrimPrefix(typeNode.Content(source), "*")
		if idx := strings.IndexByte(name, '['); idx > 0 {
			name = name[:idx]
		}
		return name
	}
	return ""
}

func (p *goParser) parseParameters(node *sitter.Node, source []byte) []manifest.ParamInfo {
	if node == nil {
		return nil
	}

	var params []manifest.ParamInfo
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "parameter_declaration" && decl.Type() != "variadic_parameter_declaration" {
			continue
		}

		typeNode := decl.ChildByFieldName("type")
		typeName := ""
		if typeNode != nil {
			typeName = typeNode.Content(source)
		}
		if decl.Type() == "variadic_parameter_declaration" {
			typeName = "..." + typeName
		}

		// One declaration may bind several names: func Add(a, b int).
		named := false
		for j := 0; j < int(decl.ChildCount()); j++ {
			if decl.FieldNameForChild(j) != "name" {
				continue
			}
			named = true
			params = append(params, manifest.ParamInfo{
				Name: decl.Child(j).Content(source),
				Type: typeName,
			})
		}
		if !named && typeName != "" {
			params = append(params, manifest.ParamInfo{Type: typeName})
		}
	}
	return params
}

func (p *goParser) parseTypeDecl(node *sitter.Node, source []byte, filePath string) []manifest.Symbol {
	var symbols []manifest.Symbol

	for i := 0; i < int(node.NamedChildCount()); i++ {
		spec := node.NamedChild(i)
		if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(source)
		exported := goExported(name)

		kind := manifest.KindType
		typeNode := spec.ChildByFieldName("type")
		if typeNode != nil {
			switch typeNode.Type() {
			case "struct_type":
				kind = manifest.KindClass
			case "interface_type":
				kind = manifest.KindInterface
			}
		}

		// Grouped type declarations document the spec, single ones the decl.
		doc := docComment(spec, source)
		if doc == "" && i == 0 {
			doc = docComment(node, source)
		}

		sym := manifest.Symbol{
			ID:         symbolID(filePath, name),
			Name:       name,
			Kind:       kind,
			Visibility: visibilityOf(exported),
			Location:   nodeLocation(spec, filePath),
			Exported:   exported,
			Signature:  "type " + name,
			Doc:        doc,
		}
		symbols = append(symbols, sym)

		if typeNode != nil && kind == manifest.KindClass {
			symbols = append(symbols, p.parseStructFields(typeNode, source, filePath, name)...)
		}
	}
	return symbols
}

func (p *goParser) parseStructFields(structNode *sitter.Node, source []byte, filePath, parent string) []manifest.Symbol {
	var symbols []manifest.Symbol

	walkTree(structNode, func(n *sitter.Node) {
		if n.Type() != "field_declaration" {
			return
		}
		typeNode := n.ChildByFieldName("type")
		for j := 0; j < int(n.ChildCount()); j++ {
			if n.FieldNameForChild(j) != "name" {
				continue
			}
			name := n.Child(j).Content(source)
			exported := goExported(name)
			sym := manifest.Symbol{
				ID:         memberID(filePath, parent, name),
				Name:       name,
				Kind:       manifest.KindProperty,
				Visibility: visibilityOf(exported),
				Location:   nodeLocation(n, filePath),
				Exported:   exported,
				ParentID:   symbolID(filePath, parent),
				Doc:        docComment(n, source),
			}
			if typeNode != nil {
				sym.ReturnType = typeNode.Content(source)
			}
			symbols = append(symbols, sym)
		}
	})

	return symbols
}

func (p *goParser) parseValueDecl(node *sitter.Node, source []byte, filePath string, kind manifest.SymbolKind) []manifest.Symbol {
	var symbols []manifest.Symbol

	walkTree(node, func(spec *sitter.Node) {
		if spec.Type() != "const_spec" && spec.Type() != "var_spec" {
			return
		}
		for j := 0; j < int(spec.ChildCount()); j++ {
			if spec.FieldNameForChild(j) != "name" {
				continue
			}
			name := spec.Child(j).Content(source)
			exported := goExported(name)

			doc := docComment(spec, source)
			if doc == "" {
				doc = docComment(node, source)
			}

			symbols = append(symbols, manifest.Symbol{
				ID:         symbolID(filePath, name),
				Name:       name,
				Kind:       kind,
				Visibility: visibilityOf(exported),
				Location:   nodeLocation(spec, filePath),
				Exported:   exported,
				Signature:  collapseWhitespace(firstLine(spec.Content(source))),
				Doc:        doc,
			})
		}
	})

	return symbols
}

// goExported reports whether a Go identifier is exported per the
// uppercase-first-letter rule.
func goExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
