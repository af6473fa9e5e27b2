package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/repolens/repolens/internal/manifest"
)

// ecmaExtractor holds the symbol extraction shared by the JavaScript and
// TypeScript parsers. The two grammars use the same node names for the
// common syntax; ts enables the TypeScript-only declaration forms.
type ecmaExtractor struct {
	ts bool
}

func (e ecmaExtractor) extract(root *sitter.Node, source []byte, filePath string) *ParseResult {
	result := &ParseResult{}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)

		switch node.Type() {
		case "import_statement":
			if imp := e.parseImport(node, source); imp != nil {
				result.Imports = append(result.Imports, *imp)
			}
		case "export_statement":
			e.parseExport(node, source, filePath, result)
		default:
			syms := e.declarationSymbols(node, source, filePath, false)
			result.Symbols = append(result.Symbols, syms...)
		}
	}

	// export { a, b } statements reference declarations parsed elsewhere
	// in the file; resolve the back-references and exported flags now.
	e.resolveNamedExports(result, filePath)

	if first := root.NamedChild(0); first != nil {
		result.ModuleDoc = moduleDocFrom(first, source)
	}

	result.Symbols = linkMembers(result.Symbols)
	return result
}

// declarationSymbols extracts symbols from one top-level declaration
// node. exported marks symbols declared directly under an export
// statement; the export keyword is the sole visibility convention here.
func (e ecmaExtractor) declarationSymbols(node *sitter.Node, source []byte, filePath string, exported bool) []manifest.Symbol {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if sym := e.parseFunction(node, source, filePath, exported); sym != nil {
			return []manifest.Symbol{*sym}
		}
	case "class_declaration", "abstract_class_declaration":
		return e.parseClass(node, source, filePath, exported)
	case "lexical_declaration", "variable_declaration":
		return e.parseVariables(node, source, filePath, exported)
	case "interface_declaration":
		if e.ts {
			return e.parseInterface(node, source, filePath, exported)
		}
	case "type_alias_declaration":
		if e.ts {
			if sym := e.parseNamedOnly(node, source, filePath, exported, manifest.KindType); sym != nil {
				return []manifest.Symbol{*sym}
			}
		}
	case "enum_declaration":
		if e.ts {
			if sym := e.parseNamedOnly(node, source, filePath, exported, manifest.KindEnum); sym != nil {
				return []manifest.Symbol{*sym}
			}
		}
	case "internal_module", "module":
		if e.ts {
			if sym := e.parseNamedOnly(node, source, filePath, exported, manifest.KindNamespace); sym != nil {
				return []manifest.Symbol{*sym}
			}
		}
	}
	return nil
}

func (e ecmaExtractor) parseImport(node *sitter.Node, source []byte) *manifest.ImportInfo {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}

	imp := &manifest.ImportInfo{
		Source:   trimQuotes(sourceNode.Content(source)),
		TypeOnly: e.ts && hasKeywordChild(node, "type"),
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		clause := node.NamedChild(i)
		if clause.Type() != "import_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			child := clause.NamedChild(j)
			switch child.Type() {
			case "identifier":
				imp.Specifiers = append(imp.Specifiers, manifest.ImportSpecifier{
					Name:    child.Content(source),
					Default: true,
				})
			case "namespace_import":
				for k := 0; k < int(child.NamedChildCount()); k++ {
					if id := child.NamedChild(k); id.Type() == "identifier" {
						imp.Specifiers = append(imp.Specifiers, manifest.ImportSpecifier{
							Name:      id.Content(source),
							Namespace: true,
						})
					}
				}
			case "named_imports":
				for k := 0; k < int(child.NamedChildCount()); k++ {
					spec := child.NamedChild(k)
					if spec.Type() != "import_specifier" {
						continue
					}
					s := manifest.ImportSpecifier{}
					if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
						s.Name = nameNode.Content(source)
					}
					if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
						s.Alias = aliasNode.Content(source)
					}
					if s.Name != "" {
						imp.Specifiers = append(imp.Specifiers, s)
					}
				}
			}
		}
	}

	return imp
}

func (e ecmaExtractor) parseExport(node *sitter.Node, source []byte, filePath string, result *ParseResult) {
	isDefault := hasKeywordChild(node, "default")
	typeOnly := e.ts && hasKeywordChild(node, "type")
	var reexportSource string
	if sourceNode := node.ChildByFieldName("source"); sourceNode != nil {
		reexportSource = trimQuotes(sourceNode.Content(source))
	}

	// export [default] <declaration>
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		syms := e.declarationSymbols(decl, source, filePath, true)
		for i := range syms {
			// The export statement owns the doc comment position, not the
			// inner declaration.
			if syms[i].ParentID == "" && syms[i].Doc == "" {
				syms[i].Doc = docComment(node, source)
			}
		}
		result.Symbols = append(result.Symbols, syms...)
		for _, sym := range syms {
			if sym.ParentID != "" {
				continue
			}
			result.Exports = append(result.Exports, manifest.ExportInfo{
				Name:     sym.Name,
				SymbolID: sym.ID,
				Default:  isDefault,
				TypeOnly: typeOnly,
			})
		}
		return
	}

	// export * from './x'
	if reexportSource != "" && hasKeywordChild(node, "*") {
		result.Exports = append(result.Exports, manifest.ExportInfo{
			Name:   "*",
			Source: reexportSource,
		})
		result.Imports = append(result.Imports, manifest.ImportInfo{
			Source:   reexportSource,
			TypeOnly: typeOnly,
		})
		return
	}

	// export { a, b as c } [from './x']
	for i := 0; i < int(node.NamedChildCount()); i++ {
		clause := node.NamedChild(i)
		if clause.Type() != "export_clause" {
			continue
		}
		var imported []manifest.ImportSpecifier
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			spec := clause.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			exp := manifest.ExportInfo{Source: reexportSource, TypeOnly: typeOnly}
			if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
				exp.Name = nameNode.Content(source)
			}
			if aliasNode := spec.ChildByFieldName("alias"); aliasNode != nil {
				exp.Alias = aliasNode.Content(source)
			}
			if exp.Name != "" {
				result.Exports = append(result.Exports, exp)
				if reexportSource != "" {
					imported = append(imported, manifest.ImportSpecifier{Name: exp.Name})
				}
			}
		}
		// Re-exports read from the source module like an import does.
		if reexportSource != "" {
			result.Imports = append(result.Imports, manifest.ImportInfo{
				Source:     reexportSource,
				Specifiers: imported,
				TypeOnly:   typeOnly,
			})
		}
	}
}

// resolveNamedExports marks symbols referenced by bare export clauses as
// exported and fills their back-references.
func (e ecmaExtractor) resolveNamedExports(result *ParseResult, filePath string) {
	byName := make(map[string]int)
	for i, sym := range result.Symbols {
		if sym.ParentID == "" {
			byName[sym.Name] = i
		}
	}

	for i := range result.Exports {
		exp := &result.Exports[i]
		if exp.Source != "" || exp.SymbolID != "" || exp.Name == "*" {
			continue
		}
		if si, ok := byName[exp.Name]; ok {
			exp.SymbolID = result.Symbols[si].ID
			result.Symbols[si].Exported = true
			result.Symbols[si].Visibility = manifest.VisibilityPublic
		}
	}
}

func (e ecmaExtractor) parseFunction(node *sitter.Node, source []byte, filePath string, exported bool) *manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	name := "default"
	if nameNode != nil {
		name = nameNode.Content(source)
	}

	sym := &manifest.Symbol{
		ID:         symbolID(filePath, name),
		Name:       name,
		Kind:       manifest.KindFunction,
		Visibility: visibilityOf(exported),
		Location:   nodeLocation(node, filePath),
		Exported:   exported,
		Parameters: e.parseParameters(node.ChildByFieldName("parameters"), source),
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}
	sym.ReturnType = e.returnType(node, source)
	return sym
}

func (e ecmaExtractor) returnType(node *sitter.Node, source []byte) string {
	ret := node.ChildByFieldName("return_type")
	if ret == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(ret.Content(source), ":"))
}

func (e ecmaExtractor) parseParameters(node *sitter.Node, source []byte) []manifest.ParamInfo {
	if node == nil {
		return nil
	}

	var params []manifest.ParamInfo
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		var param manifest.ParamInfo

		switch child.Type() {
		case "identifier", "object_pattern", "array_pattern", "rest_pattern":
			param.Name = child.Content(source)
		case "assignment_pattern":
			if left := child.ChildByFieldName("left"); left != nil {
				param.Name = left.Content(source)
			}
			if right := child.ChildByFieldName("right"); right != nil {
				param.Default = right.Content(source)
				param.Optional = true
			}
		case "required_parameter", "optional_parameter":
			if pattern := child.ChildByFieldName("pattern"); pattern != nil {
				param.Name = pattern.Content(source)
			}
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				param.Type = strings.TrimSpace(strings.TrimPrefix(typeNode.Content(source), ":"))
			}
			if valueNode := child.ChildByFieldName("value"); valueNode != nil {
				param.Default = valueNode.Content(source)
			}
			param.Optional = child.Type() == "optional_parameter" || param.Default != ""
		default:
			continue
		}

		if param.Name != "" {
			params = append(params, param)
		}
	}
	return params
}

func (e ecmaExtractor) parseClass(node *sitter.Node, source []byte, filePath string, exported bool) []manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)

	cls := manifest.Symbol{
		ID:         symbolID(filePath, name),
		Name:       name,
		Kind:       manifest.KindClass,
		Visibility: visibilityOf(exported),
		Location:   nodeLocation(node, filePath),
		Exported:   exported,
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}
	e.parseHeritage(node, source, &cls)

	symbols := []manifest.Symbol{cls}
	body := node.ChildByFieldName("body")
	if body == nil {
		return symbols
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_definition":
			if sym := e.parseMethod(member, source, filePath, name); sym != nil {
				symbols = append(symbols, *sym)
			}
		case "public_field_definition", "field_definition":
			if sym := e.parseField(member, source, filePath, name); sym != nil {
				symbols = append(symbols, *sym)
			}
		}
	}
	return symbols
}

// parseHeritage fills Extends/Implements from a class_heritage clause.
func (e ecmaExtractor) parseHeritage(node *sitter.Node, source []byte, cls *manifest.Symbol) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "class_heritage" {
			continue
		}
		walkTree(child, func(n *sitter.Node) {
			switch n.Type() {
			case "extends_clause":
				if v := n.ChildByFieldName("value"); v != nil {
					cls.Extends = v.Content(source)
				} else if first := n.NamedChild(0); first != nil {
					cls.Extends = first.Content(source)
				}
			case "implements_clause":
				for k := 0; k < int(n.NamedChildCount()); k++ {
					cls.Implements = append(cls.Implements, n.NamedChild(k).Content(source))
				}
			}
		})
	}
}

func (e ecmaExtractor) parseMethod(node *sitter.Node, source []byte, filePath, parent string) *manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	vis := memberVisibility(node, source)

	sym := &manifest.Symbol{
		ID:         memberID(filePath, parent, name),
		Name:       name,
		Kind:       manifest.KindMethod,
		Visibility: vis,
		Location:   nodeLocation(node, filePath),
		Exported:   vis == manifest.VisibilityPublic,
		ParentID:   symbolID(filePath, parent),
		Parameters: e.parseParameters(node.ChildByFieldName("parameters"), source),
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}
	sym.ReturnType = e.returnType(node, source)
	return sym
}

func (e ecmaExtractor) parseField(node *sitter.Node, source []byte, filePath, parent string) *manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	vis := memberVisibility(node, source)

	sym := &manifest.Symbol{
		ID:         memberID(filePath, parent, name),
		Name:       name,
		Kind:       manifest.KindProperty,
		Visibility: vis,
		Location:   nodeLocation(node, filePath),
		Exported:   vis == manifest.VisibilityPublic,
		ParentID:   symbolID(filePath, parent),
		Doc:        docComment(node, source),
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		sym.ReturnType = strings.TrimSpace(strings.TrimPrefix(typeNode.Content(source), ":"))
	}
	return sym
}

func (e ecmaExtractor) parseInterface(node *sitter.Node, source []byte, filePath string, exported bool) []manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)

	iface := manifest.Symbol{
		ID:         symbolID(filePath, name),
		Name:       name,
		Kind:       manifest.KindInterface,
		Visibility: visibilityOf(exported),
		Location:   nodeLocation(node, filePath),
		Exported:   exported,
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}
	e.parseHeritage(node, source, &iface)

	symbols := []manifest.Symbol{iface}
	body := node.ChildByFieldName("body")
	if body == nil {
		return symbols
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		var kind manifest.SymbolKind
		switch member.Type() {
		case "property_signature":
			kind = manifest.KindProperty
		case "method_signature":
			kind = manifest.KindMethod
		default:
			continue
		}
		memberName := member.ChildByFieldName("name")
		if memberName == nil {
			continue
		}
		mn := memberName.Content(source)
		sym := manifest.Symbol{
			ID:         memberID(filePath, name, mn),
			Name:       mn,
			Kind:       kind,
			Visibility: manifest.VisibilityPublic,
			Location:   nodeLocation(member, filePath),
			Exported:   exported,
			ParentID:   iface.ID,
			Doc:        docComment(member, source),
		}
		if kind == manifest.KindMethod {
			sym.Parameters = e.parseParameters(member.ChildByFieldName("parameters"), source)
			sym.ReturnType = e.returnType(member, source)
		} else if typeNode := member.ChildByFieldName("type"); typeNode != nil {
			sym.ReturnType = strings.TrimSpace(strings.TrimPrefix(typeNode.Content(source), ":"))
		}
		symbols = append(symbols, sym)
	}
	return symbols
}

// parseNamedOnly handles declaration forms where only the name matters
// for the shallow symbol table (type aliases, enums, namespaces).
func (e ecmaExtractor) parseNamedOnly(node *sitter.Node, source []byte, filePath string, exported bool, kind manifest.SymbolKind) *manifest.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(source)
	return &manifest.Symbol{
		ID:         symbolID(filePath, name),
		Name:       name,
		Kind:       kind,
		Visibility: visibilityOf(exported),
		Location:   nodeLocation(node, filePath),
		Exported:   exported,
		Signature:  signatureOf(node, source),
		Doc:        docComment(node, source),
	}
}

// parseVariables extracts const/let/var declarators. Arrow functions and
// function expressions assigned to a name are recorded as functions.
func (e ecmaExtractor) parseVariables(node *sitter.Node, source []byte, filePath string, exported bool) []manifest.Symbol {
	var symbols []manifest.Symbol

	kind := manifest.KindVariable
	if strings.HasPrefix(node.Content(source), "const") {
		kind = manifest.KindConstant
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		name := nameNode.Content(source)

		sym := manifest.Symbol{
			ID:         symbolID(filePath, name),
			Name:       name,
			Kind:       kind,
			Visibility: visibilityOf(exported),
			Location:   nodeLocation(decl, filePath),
			Exported:   exported,
			Signature:  collapseWhitespace(firstLine(node.Content(source))),
			Doc:        docComment(node, source),
		}

		if value := decl.ChildByFieldName("value"); value != nil {
			switch value.Type() {
			case "arrow_function", "function", "function_expression", "generator_function":
				sym.Kind = manifest.KindFunction
				sym.Parameters = e.parseParameters(value.ChildByFieldName("parameters"), source)
				sym.ReturnType = e.returnType(value, source)
			}
		}

		symbols = append(symbols, sym)
	}
	return symbols
}

// memberVisibility reads a TypeScript accessibility modifier off a class
// member; absent modifiers mean public.
func memberVisibility(node *sitter.Node, source []byte) manifest.Visibility {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "accessibility_modifier" {
			continue
		}
		switch child.Content(source) {
		case "private":
			return manifest.VisibilityPrivate
		case "protected":
			return manifest.VisibilityProtected
		}
	}
	return manifest.VisibilityPublic
}

// hasKeywordChild reports whether node has an anonymous child token with
// the given text, e.g. the "default" in "export default" or the "type"
// in "import type".
func hasKeywordChild(node *sitter.Node, keyword string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == keyword {
			return true
		}
	}
	return false
}

func trimQuotes(s string) string {
	return strings.Trim(s, "'\"`")
}
