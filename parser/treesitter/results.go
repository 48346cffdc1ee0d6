package treesitter

import (
	"sort"
	"strings"

	"github.com/teranos/clangcomplete/chunk"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/parser"
)

// resultSet deduplicates completions by kind and rendered text.
type resultSet struct {
	seen    map[string]bool
	results []parser.Result
}

func newResultSet() *resultSet {
	return &resultSet{seen: map[string]bool{}}
}

func (r *resultSet) add(s *chunk.String, kind ipc.CompletionKind, priority uint32) {
	key := kind.String() + "\x00" + chunk.Join(chunk.Extract(s))
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.results = append(r.results, parser.Result{String: s, Kind: kind, Priority: priority})
}

func (r *resultSet) addSymbol(s symbol, priority uint32) {
	r.add(symbolString(s), s.kind, priority)
}

func (r *resultSet) addMacro(m macro) {
	s := chunk.NewString().Add(chunk.TypedText, m.name)
	if m.functionLike() {
		s.Add(chunk.LeftParen, "(")
		for i, p := range m.params {
			if i > 0 {
				s.Add(chunk.Comma, ", ")
			}
			s.Add(chunk.Placeholder, p)
		}
		s.Add(chunk.RightParen, ")")
	}
	r.add(s, ipc.CompletionMacro, parser.PriorityMacro)
}

func (r *resultSet) addKeywords(keywords []string) {
	for _, k := range keywords {
		r.add(chunk.NewString().Add(chunk.TypedText, k), ipc.CompletionKeyword, parser.PriorityKeyword)
	}
}

// addClassPattern offers the "class name { };" code pattern.
func (r *resultSet) addClassPattern() {
	s := chunk.NewString().
		Add(chunk.TypedText, "class").
		Add(chunk.HorizontalSpace, " ").
		Add(chunk.Placeholder, "name").
		Add(chunk.VerticalSpace, "\n").
		Add(chunk.LeftBrace, "{").
		Add(chunk.VerticalSpace, "\n").
		Add(chunk.Placeholder, "declarations").
		Add(chunk.VerticalSpace, "\n").
		Add(chunk.RightBrace, "}").
		Add(chunk.SemiColon, ";")
	r.add(s, ipc.CompletionKeyword, parser.PriorityCodePattern)
}

func (r *resultSet) addDoxygen() {
	for _, cmd := range doxygenCommands {
		r.add(chunk.NewString().Add(chunk.TypedText, cmd), ipc.CompletionDoxygen, parser.PriorityKeyword)
	}
}

// sorted orders results by priority, then typed text.
func (r *resultSet) sorted() []parser.Result {
	sort.SliceStable(r.results, func(i, j int) bool {
		a, b := r.results[i], r.results[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return strings.ToLower(typedText(a.String)) < strings.ToLower(typedText(b.String))
	})
	return r.results
}

func typedText(cs chunk.CompletionString) string {
	for i := 0; i < cs.ChunkCount(); i++ {
		if cs.ChunkKind(i) == chunk.TypedText {
			return cs.ChunkText(i)
		}
	}
	return ""
}

// symbolString renders a declaration the way clang builds completion strings:
// result type, typed text, then parameters with default arguments nested in
// optional groups.
func symbolString(s symbol) *chunk.String {
	cs := chunk.NewString()
	if s.typ != "" && s.kind != ipc.CompletionEnumerator {
		cs.Add(chunk.ResultType, s.typ)
	}
	cs.Add(chunk.TypedText, s.name)
	if !s.isFunction() {
		return cs
	}

	cs.Add(chunk.LeftParen, "(")
	required := 0
	for required < len(s.params) && !s.params[required].optional {
		required++
	}
	for i := 0; i < required; i++ {
		if i > 0 {
			cs.Add(chunk.Comma, ", ")
		}
		cs.Add(chunk.Placeholder, s.params[i].text)
	}
	if required < len(s.params) {
		cs.AddOptional(optionalParams(s.params[required:], required > 0))
	}
	cs.Add(chunk.RightParen, ")")
	if s.isConst {
		cs.Add(chunk.Informative, " const")
	}
	return cs
}

func optionalParams(params []param, leadingComma bool) *chunk.String {
	cs := chunk.NewString()
	if leadingComma {
		cs.Add(chunk.Comma, ", ")
	}
	cs.Add(chunk.Placeholder, params[0].text)
	if len(params) > 1 {
		cs.AddOptional(optionalParams(params[1:], true))
	}
	return cs
}
