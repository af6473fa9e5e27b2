package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/repolens/repolens/internal/manifest"
)

// pythonParser extracts symbols from Python source. A leading underscore
// marks a name private; everything else is considered exported.
type pythonParser struct {
	lang *sitter.Language
}

func newPythonParser() *pythonParser {
	return &pythonParser{lang: python.GetLanguage()}
}

func (p *pythonParser) Language() Language { return LanguagePython }

func (p *pythonParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	tree, err := parseTree(ctx, p.lang, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &ParseResult{}
	root := tree.RootNode()

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		docNode := node
		if node.Type() == "decorated_definition" {
			if def := node.ChildByFieldName("definition"); def != nil {
				node = def
			}
		}

		switch node.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			if imp := p.parseImport(node, content); imp != nil {
				result.Imports = append(result.Imports, *imp)
			}
		case "function_definition":
			if sym := p.parseFunction(node, docNode, content, filePath, ""); sym != nil {
				result.Symbols = append(result.Symbols, *sym)
			}
		case "class_definition":
			result.Symbols = append(result.Symbols, p.parseClass(node, docNode, content, filePath)...)
		case "expression_statement":
			result.Symbols = append(result.Symbols, p.parseAssignment(node, content, filePath)...)
		}
	}

	result.ModuleDoc = p.moduleDoc(root, content)
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

// moduleDoc prefers the module docstring; without one it falls back to
// the comment run above the first statement.
func (p *pythonParser) moduleDoc(root *sitter.Node, source []byte) *manifest.ModuleDoc {
	first := root.NamedChild(0)
	if first == nil {
		return nil
	}
	if doc := pythonDocstring(root, source); doc != "" {
		return &manifest.ModuleDoc{Summary: firstLine(doc), Text: doc}
	}
	return moduleDocFrom(first, source)
}

func (p *pythonParser) parseImport(node *sitter.Node, source []byte) *manifest.ImportInfo {
	imp := &manifest.ImportInfo{}

	switch node.Type() {
	case "import_statement":
		// import a.b, c as d: one record per statement, namespace bindings.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				name := child.Content(source)
				if imp.Source == "" {
					imp.Source = name
				}
				imp.Specifiers = append(imp.Specifiers, manifest.ImportSpecifier{
					Name:      lastDottedPart(name),
					Namespace: true,
				})
			case "aliased_import":
				nameNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				name := nameNode.Content(source)
				if imp.Source == "" {
					imp.Source = name
				}
				spec := manifest.ImportSpecifier{Name: lastDottedPart(name), Namespace: true}
				if aliasNode != nil {
					spec.Alias = aliasNode.Content(source)
				}
				imp.Specifiers = append(imp.Specifiers, spec)
			}
		}
	default: // import_from_statement, future_import_statement
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			imp.Source = mod.Content(source)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.FieldNameForChild(i) != "name" {
				continue
			}
			child := node.Child(i)
			if child.Type() == "aliased_import" {
				spec := manifest.ImportSpecifier{}
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					spec.Name = nameNode.Content(source)
				}
				if aliasNode := child.ChildByFieldName("alias"); aliasNode != nil {
					spec.Alias = aliasNode.Content(source)
				}
				imp.Specifiers = append(imp.Specifiers, spec)
			} else {
				imp.Specifiers = append(imp.Specifiers, manifest.ImportSpecifier{
					Name: child.Content(source),
				})
			}
		}
	}

	if imp.Source == "" {
		return nil
	}
	return imp
}

func (p *pythonParser) parseFunction(node, docNode *sitter.Node, source []byte, filePath, parent string) *manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	exported := !strings.HasPrefix(name, "_")

	sym := &manifest.Symbol{
		Name:       name,
		Kind:       manifest.KindFunction,
		Visibility: visibilityOf(exported),
		Location:   nodeLocation(node, filePath),
		Exported:   exported,
		Parameters: p.parseParameters(node.ChildByFieldName("parameters"), source),
		Signature:  signatureOf(node, source),
	}

	if parent != "" {
		sym.Kind = manifest.KindMethod
		sym.ID = memberID(filePath, parent, name)
		sym.ParentID = symbolID(filePath, parent)
	} else {
		sym.ID = symbolID(filePath, name)
	}

	if ret := node.ChildByFieldName("return_type"); ret != nil {
		sym.ReturnType = ret.Content(source)
	}

	sym.Doc = pythonDocstring(node.ChildByFieldName("body"), source)
	if sym.Doc == "" {
		sym.Doc = docComment(docNode, source)
	}

	return sym
}

func (p *pythonParser) parseParameters(node *sitter.Node, source []byte) []manifest.ParamInfo {
	if node == nil {
		return nil
	}

	var params []manifest.ParamInfo
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		var param manifest.ParamInfo

		switch child.Type() {
		case "identifier":
			param.Name = child.Content(source)
		case "typed_parameter":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				sub := child.NamedChild(j)
				if sub.Type() == "identifier" {
					param.Name = sub.Content(source)
				}
			}
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				param.Type = typeNode.Content(source)
			}
		case "default_parameter", "typed_default_parameter":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				param.Name = nameNode.Content(source)
			}
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				param.Type = typeNode.Content(source)
			}
			if valueNode := child.ChildByFieldName("value"); valueNode != nil {
				param.Default = valueNode.Content(source)
				param.Optional = true
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			param.Name = child.Content(source)
		default:
			continue
		}

		if param.Name == "" || param.Name == "self" || param.Name == "cls" {
			continue
		}
		params = append(params, param)
	}
	return params
}

func (p *pythonParser) parseClass(node, docNode *sitter.Node, source []byte, filePath string) []manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	exported := !strings.HasPrefix(name, "_")

	cls := manifest.Symbol{
		ID:         symbolID(filePath, name),
		Name:       name,
		Kind:       manifest.KindClass,
		Visibility: visibilityOf(exported),
		Location:   nodeLocation(node, filePath),
		Exported:   exported,
		Signature:  signatureOf(node, source),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil && supers.NamedChildCount() > 0 {
		cls.Extends = supers.NamedChild(0).Content(source)
	}

	body := node.ChildByFieldName("body")
	cls.Doc = pythonDocstring(body, source)
	if cls.Doc == "" {
		cls.Doc = docComment(docNode, source)
	}

	symbols := []manifest.Symbol{cls}
	if body == nil {
		return symbols
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		memberDoc := member
		if member.Type() == "decorated_definition" {
			if def := member.ChildByFieldName("definition"); def != nil {
				member = def
			}
		}
		if member.Type() != "function_definition" {
			continue
		}
		if sym := p.parseFunction(member, memberDoc, source, filePath, name); sym != nil {
			symbols = append(symbols, *sym)
		}
	}

	return symbols
}

// parseAssignment lifts module-level assignments into variable symbols;
// ALL_CAPS names are treated as constants by convention.
func (p *pythonParser) parseAssignment(node *sitter.Node, source []byte, filePath string) []manifest.Symbol {
	var symbols []manifest.Symbol

	for i := 0; i < int(node.NamedChildCount()); i++ {
		assign := node.NamedChild(i)
		if assign.Type() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			continue
		}
		name := left.Content(source)
		exported := !strings.HasPrefix(name, "_")

		kind := manifest.KindVariable
		if name == strings.ToUpper(name) && name != strings.ToLower(name) {
			kind = manifest.KindConstant
		}

		symbols = append(symbols, manifest.Symbol{
			ID:         symbolID(filePath, name),
			Name:       name,
			Kind:       kind,
			Visibility: visibilityOf(exported),
			Location:   nodeLocation(node, filePath),
			Exported:   exported,
			Signature:  collapseWhitespace(firstLine(node.Content(source))),
			Doc:        docComment(node, source),
		})
	}

	return symbols
}

// pythonDocstring returns the docstring if body's first statement is a
// bare string literal.
func pythonDocstring(body *sitter.Node, source []byte) string {
	if body == nil {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" {
		return ""
	}
	str := first.NamedChild(0)
	if str == nil || str.Type() != "string" {
		return ""
	}

	text := str.Content(source)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			text = strings.TrimPrefix(text, q)
			text = strings.TrimSuffix(text, q)
			break
		}
	}
	return strings.TrimSpace(text)
}

func lastDottedPart(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
