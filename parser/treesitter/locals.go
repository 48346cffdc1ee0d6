package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/teranos/clangcomplete/ipc"
)

// scope describes the function body around the cursor.
type scope struct {
	locals []symbol
	class  string // enclosing class of a member function, "" otherwise
}

// enclosingFunction returns the innermost function definition whose body
// contains offset.
func enclosingFunction(root *sitter.Node, offset int) *sitter.Node {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if int(n.StartByte()) > offset || int(n.EndByte()) < offset {
			return
		}
		if n.Type() == "function_definition" {
			if body := n.ChildByFieldName("body"); body != nil && int(body.StartByte()) < offset {
				found = n
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return found
}

// localScope collects the parameters of fn and the declarations in its body
// that end before offset.
func localScope(fn *sitter.Node, src []byte, offset int) scope {
	c := &collector{src: src, unit: newUnit()}
	var sc scope

	decl := fn.ChildByFieldName("declarator")
	fnDecl, name, _ := unwrapDeclarator(decl, src)
	if fnDecl != nil {
		if list := fnDecl.ChildByFieldName("parameters"); list != nil {
			for i := 0; i < int(list.NamedChildCount()); i++ {
				p := list.NamedChild(i)
				d := p.ChildByFieldName("declarator")
				if d == nil {
					continue
				}
				if s, ok := c.declarator(p, d, ipc.CompletionVariable, ipc.CompletionVariable); ok {
					s.kind = ipc.CompletionVariable
					s.params = nil
					sc.locals = append(sc.locals, s)
				}
			}
		}
	}

	if name != nil && name.Type() == "qualified_identifier" {
		if ns := name.ChildByFieldName("scope"); ns != nil {
			sc.class = bareTypeName(ns.Content(src))
		}
	} else {
		for p := fn.Parent(); p != nil; p = p.Parent() {
			if t := p.Type(); t == "class_specifier" || t == "struct_specifier" {
				if n := p.ChildByFieldName("name"); n != nil {
					sc.class = bareTypeName(n.Content(src))
				}
				break
			}
		}
	}

	body := fn.ChildByFieldName("body")
	if body == nil {
		return sc
	}
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if int(n.StartByte()) >= offset {
			return
		}
		switch n.Type() {
		case "declaration":
			if int(n.EndByte()) <= offset {
				for _, d := range fieldChildren(n, "declarator") {
					if s, ok := c.declarator(n, d, ipc.CompletionFunction, ipc.CompletionVariable); ok {
						sc.locals = append(sc.locals, s)
					}
				}
			}
			return
		case "lambda_expression", "class_specifier", "struct_specifier":
			return
		}
		// blocks that closed before the cursor are out of scope
		if n.Type() == "compound_statement" && int(n.EndByte()) <= offset {
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
	return sc
}
