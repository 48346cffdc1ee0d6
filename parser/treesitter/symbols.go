package treesitter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/teranos/clangcomplete/ipc"
)

// symbol is a declaration that can be offered as a completion.
type symbol struct {
	name     string
	kind     ipc.CompletionKind
	typ      string  // variable type or function result type, as written
	typeName string  // bare class name of typ, for member lookup
	params   []param // functions only
	isConst  bool    // const member function
	offset   int
}

type param struct {
	text     string // "const QString &s", without default value
	optional bool
}

func (s symbol) isFunction() bool {
	return s.kind == ipc.CompletionFunction || s.kind == ipc.CompletionMethod
}

type classInfo struct {
	name    string
	bases   []string
	members []symbol
}

// unit collects the declarations of one parsed file.
type unit struct {
	globals  []symbol
	classes  map[string]*classInfo
	typedefs map[string]string // alias -> bare target name
}

func newUnit() *unit {
	return &unit{classes: map[string]*classInfo{}, typedefs: map[string]string{}}
}

// merge appends other's declarations.
func (u *unit) merge(other *unit) {
	u.globals = append(u.globals, other.globals...)
	for name, c := range other.classes {
		if _, exists := u.classes[name]; !exists || len(c.members) > 0 {
			u.classes[name] = c
		}
	}
	for alias, target := range other.typedefs {
		u.typedefs[alias] = target
	}
}

// resolveClass follows typedefs to a known class.
func (u *unit) resolveClass(name string) *classInfo {
	for i := 0; i < 8 && name != ""; i++ {
		if c, ok := u.classes[name]; ok {
			return c
		}
		target, ok := u.typedefs[name]
		if !ok {
			break
		}
		name = target
	}
	return nil
}

type collector struct {
	src  []byte
	unit *unit
}

func collect(root *sitter.Node, src []byte) *unit {
	c := &collector{src: src, unit: newUnit()}
	c.walkScope(root)
	return c.unit
}

func (c *collector) walkScope(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.visit(n.NamedChild(i))
	}
}

func (c *collector) visit(n *sitter.Node) {
	switch n.Type() {
	case "function_definition":
		if s, ok := c.function(n, ipc.CompletionFunction); ok {
			c.unit.globals = append(c.unit.globals, s)
		}
	case "declaration":
		c.declaration(n)
	case "class_specifier", "struct_specifier", "union_specifier":
		c.class(n)
	case "enum_specifier":
		c.enum(n)
	case "namespace_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			c.unit.globals = append(c.unit.globals, symbol{
				name:   name.Content(c.src),
				kind:   ipc.CompletionNamespace,
				offset: int(n.StartByte()),
			})
		} else if body := n.ChildByFieldName("body"); body != nil {
			c.walkScope(body)
		}
	case "template_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if child := n.NamedChild(i); child.Type() != "template_parameter_list" {
				c.visit(child)
			}
		}
	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "declaration_list" {
				c.walkScope(body)
			} else {
				c.visit(body)
			}
		}
	case "type_definition":
		c.typedef(n)
	case "alias_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			alias := name.Content(c.src)
			if target := n.ChildByFieldName("type"); target != nil {
				c.unit.typedefs[alias] = bareTypeName(target.Content(c.src))
			}
			c.unit.globals = append(c.unit.globals, symbol{name: alias, kind: ipc.CompletionClass, offset: int(n.StartByte())})
		}
	case "ERROR", "declaration_list":
		c.walkScope(n)
	}
}

// declaration handles variables, prototypes and inline type definitions.
func (c *collector) declaration(n *sitter.Node) {
	if typ := n.ChildByFieldName("type"); typ != nil && typ.ChildByFieldName("body") != nil {
		c.visit(typ)
	}
	for _, d := range fieldChildren(n, "declarator") {
		if s, ok := c.declarator(n, d, ipc.CompletionFunction, ipc.CompletionVariable); ok {
			c.unit.globals = append(c.unit.globals, s)
		}
	}
}

// declarator turns one declarator of decl into a function or variable symbol.
func (c *collector) declarator(decl, d *sitter.Node, fnKind, varKind ipc.CompletionKind) (symbol, bool) {
	fn, name, ptr := unwrapDeclarator(d, c.src)
	if name == nil || !isPlainName(name) {
		return symbol{}, false
	}

	base := c.baseType(decl)
	s := symbol{
		name:     name.Content(c.src),
		typ:      joinType(base, ptr),
		typeName: bareTypeName(base),
		offset:   int(decl.StartByte()),
	}
	if fn != nil {
		s.kind = fnKind
		s.params = c.params(fn.ChildByFieldName("parameters"))
		s.isConst = hasChildOfType(fn, "type_qualifier", c.src, "const")
	} else {
		s.kind = varKind
	}
	return s, true
}

func (c *collector) function(n *sitter.Node, kind ipc.CompletionKind) (symbol, bool) {
	d := n.ChildByFieldName("declarator")
	if d == nil {
		return symbol{}, false
	}
	return c.declarator(n, d, kind, kind)
}

// baseType renders the qualifiers and type specifier preceding the declarators.
func (c *collector) baseType(decl *sitter.Node) string {
	var parts []string
	for i := 0; i < int(decl.ChildCount()); i++ {
		field := decl.FieldNameForChild(i)
		if field == "declarator" {
			break
		}
		child := decl.Child(i)
		if field == "type" || child.Type() == "type_qualifier" {
			parts = append(parts, normalizeSpace(child.Content(c.src)))
		}
	}
	return strings.Join(parts, " ")
}

func (c *collector) params(list *sitter.Node) []param {
	if list == nil {
		return nil
	}
	var params []param
	for i := 0; i < int(list.ChildCount()); i++ {
		p := list.Child(i)
		switch p.Type() {
		case "parameter_declaration", "variadic_parameter_declaration":
			params = append(params, param{text: normalizeSpace(p.Content(c.src))})
		case "optional_parameter_declaration":
			text := p.Content(c.src)
			if def := p.ChildByFieldName("default_value"); def != nil {
				text = string(c.src[p.StartByte():def.StartByte()])
				text = strings.TrimRight(strings.TrimSpace(text), "=")
			}
			params = append(params, param{text: normalizeSpace(text), optional: true})
		case "...":
			params = append(params, param{text: "..."})
		}
	}
	return params
}

func (c *collector) class(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := bareTypeName(nameNode.Content(c.src))
	info := &classInfo{name: name}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "base_class_clause" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				base := child.NamedChild(j)
				switch base.Type() {
				case "type_identifier", "qualified_identifier", "template_type":
					info.bases = append(info.bases, bareTypeName(base.Content(c.src)))
				}
			}
		}
	}

	if body := n.ChildByFieldName("body"); body != nil {
		c.members(info, body)
	}

	if existing, ok := c.unit.classes[name]; !ok || len(existing.members) == 0 {
		c.unit.classes[name] = info
	}
	c.unit.globals = append(c.unit.globals, symbol{name: name, kind: ipc.CompletionClass, offset: int(n.StartByte())})
}

func (c *collector) members(info *classInfo, body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "field_declaration", "declaration":
			for _, d := range fieldChildren(m, "declarator") {
				if s, ok := c.declarator(m, d, ipc.CompletionMethod, ipc.CompletionField); ok && !isSpecialMember(s.name, info.name) {
					s.offset = int(m.StartByte())
					info.members = append(info.members, s)
				}
			}
		case "function_definition":
			if s, ok := c.function(m, ipc.CompletionMethod); ok && !isSpecialMember(s.name, info.name) {
				info.members = append(info.members, s)
			}
		case "template_declaration":
			for j := 0; j < int(m.NamedChildCount()); j++ {
				if inner := m.NamedChild(j); inner.Type() == "function_definition" || inner.Type() == "declaration" {
					if s, ok := c.function(inner, ipc.CompletionMethod); ok && !isSpecialMember(s.name, info.name) {
						info.members = append(info.members, s)
					}
				}
			}
		}
	}
}

func (c *collector) enum(n *sitter.Node) {
	scoped := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if t := n.Child(i).Type(); t == "class" || t == "struct" {
			scoped = true
		}
	}

	enumName := ""
	if name := n.ChildByFieldName("name"); name != nil {
		enumName = name.Content(c.src)
		c.unit.globals = append(c.unit.globals, symbol{name: enumName, kind: ipc.CompletionEnumeration, offset: int(n.StartByte())})
	}
	if scoped {
		return
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		e := body.NamedChild(i)
		if e.Type() != "enumerator" {
			continue
		}
		if name := e.ChildByFieldName("name"); name != nil {
			c.unit.globals = append(c.unit.globals, symbol{
				name:   name.Content(c.src),
				kind:   ipc.CompletionEnumerator,
				typ:    enumName,
				offset: int(e.StartByte()),
			})
		}
	}
}

func (c *collector) typedef(n *sitter.Node) {
	typ := n.ChildByFieldName("type")
	if typ != nil && typ.ChildByFieldName("body") != nil {
		c.visit(typ)
	}
	for _, d := range fieldChildren(n, "declarator") {
		_, name, _ := unwrapDeclarator(d, c.src)
		if name == nil {
			continue
		}
		alias := name.Content(c.src)
		if typ != nil {
			c.unit.typedefs[alias] = bareTypeName(typ.Content(c.src))
		}
		c.unit.globals = append(c.unit.globals, symbol{name: alias, kind: ipc.CompletionClass, offset: int(n.StartByte())})
	}
}

// unwrapDeclarator follows nested declarators, collecting pointer and
// reference markers, until it reaches a function declarator or a name.
func unwrapDeclarator(d *sitter.Node, src []byte) (fn, name *sitter.Node, ptr string) {
	for depth := 0; d != nil && depth < 32; depth++ {
		switch d.Type() {
		case "function_declarator":
			if fn == nil {
				fn = d
			}
			d = d.ChildByFieldName("declarator")
		case "pointer_declarator":
			ptr += "*"
			d = d.ChildByFieldName("declarator")
		case "reference_declarator":
			if d.ChildCount() > 0 {
				ptr += d.Child(0).Content(src)
			}
			d = lastNamedChild(d)
		case "init_declarator", "array_declarator", "attributed_declarator", "parenthesized_declarator":
			if inner := d.ChildByFieldName("declarator"); inner != nil {
				d = inner
			} else {
				d = firstNamedChild(d)
			}
		default:
			return fn, d, ptr
		}
	}
	return fn, nil, ptr
}

func isPlainName(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier", "field_identifier", "operator_name":
		return true
	}
	return false
}

func isSpecialMember(name, class string) bool {
	return name == class || strings.HasPrefix(name, "~")
}

func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

func hasChildOfType(n *sitter.Node, typ string, src []byte, content string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child.Type() == typ && child.Content(src) == content {
			return true
		}
	}
	return false
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

func lastNamedChild(n *sitter.Node) *sitter.Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}
	return n.NamedChild(count - 1)
}

// joinType appends pointer and reference markers the way clang spells result
// types: "TType<QString> *".
func joinType(base, ptr string) string {
	if ptr == "" {
		return base
	}
	if base == "" {
		return ptr
	}
	return base + " " + ptr
}

// bareTypeName reduces a written type to the class name used for lookup:
// "const ns::Foo<int> &" becomes "Foo".
func bareTypeName(typ string) string {
	typ = strings.TrimSpace(typ)
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		typ = typ[:i]
	}
	typ = strings.TrimRight(typ, " *&")
	fields := strings.Fields(typ)
	for len(fields) > 1 {
		switch fields[0] {
		case "const", "volatile", "struct", "class", "union", "enum", "typename", "static", "mutable":
			fields = fields[1:]
			continue
		}
		break
	}
	if len(fields) == 0 {
		return ""
	}
	name := fields[len(fields)-1]
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return name
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
