// Package treesitter implements parser.Engine for C and C++ on top of the
// tree-sitter C++ grammar.
package treesitter

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/parser"
	"go.uber.org/zap"
)

// DefaultMaxIncludeDepth bounds nested #include resolution.
const DefaultMaxIncludeDepth = 8

// Verify Engine implements parser.Engine
var _ parser.Engine = (*Engine)(nil)

// Engine completes C and C++ code. It is safe for concurrent use; every
// request parses with its own tree-sitter parser.
type Engine struct {
	logger          *zap.SugaredLogger
	readFile        func(path string) ([]byte, error)
	maxIncludeDepth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithFileReader replaces os.ReadFile for files without unsaved content.
func WithFileReader(fn func(path string) ([]byte, error)) Option {
	return func(e *Engine) { e.readFile = fn }
}

// WithMaxIncludeDepth bounds nested #include resolution.
func WithMaxIncludeDepth(depth int) Option {
	return func(e *Engine) { e.maxIncludeDepth = depth }
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:          zap.NewNop().Sugar(),
		readFile:        os.ReadFile,
		maxIncludeDepth: DefaultMaxIncludeDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// request carries per-call state through include resolution.
type request struct {
	ctx     context.Context
	req     parser.Request
	defines map[string]string
	visited map[string]bool
	macros  []macro
	headers *unit
}

// Complete implements parser.Engine.
func (e *Engine) Complete(ctx context.Context, req parser.Request) ([]parser.Result, error) {
	content, err := e.source(req, req.FilePath)
	if err != nil {
		return nil, err
	}

	cursor := parser.Offset(content, req.Line, req.Column)
	cc := detectContext(content, cursor)
	e.logger.Debugw("completing",
		logger.FieldFile, req.FilePath,
		logger.FieldLine, req.Line,
		logger.FieldColumn, req.Column,
		"context", cc.kind)

	results := newResultSet()
	switch cc.kind {
	case contextNone:
		return nil, nil
	case contextDoxygen:
		results.addDoxygen()
		return results.sorted(), nil
	}

	r := &request{
		ctx:     ctx,
		req:     req,
		defines: maps.Clone(req.Defines),
		visited: map[string]bool{filepath.Clean(req.FilePath): true},
		headers: newUnit(),
	}
	if r.defines == nil {
		r.defines = map[string]string{}
	}

	dir := filepath.Dir(req.FilePath)
	pp := preprocess(content, r.defines, cursor, func(inc include) {
		e.includeHeader(r, inc, dir, 1)
	})
	r.macros = append(r.macros, pp.macros...)

	text := []byte(pp.text)
	// drop the partial expression so the enclosing function still parses
	blank(text, statementStart(pp.text, cursor), cursor)

	tree, err := parse(ctx, text)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", req.FilePath)
	}
	defer tree.Close()
	root := tree.RootNode()

	file := collect(root, text)
	all := newUnit()
	all.merge(r.headers)
	all.merge(file)

	var sc scope
	if fn := enclosingFunction(root, cursor); fn != nil {
		sc = localScope(fn, text, cursor)
	}

	if cc.kind == contextMember {
		e.addMembers(results, all, sc, cc.object)
		return results.sorted(), nil
	}

	for _, s := range sc.locals {
		results.addSymbol(s, parser.PriorityLocal)
	}
	if c := all.resolveClass(sc.class); c != nil {
		addClassMembers(results, all, c, 0)
	}
	for _, s := range r.headers.globals {
		results.addSymbol(s, globalPriority(s))
	}
	for _, s := range file.globals {
		if s.offset < cursor {
			results.addSymbol(s, globalPriority(s))
		}
	}
	for _, m := range r.macros {
		results.addMacro(m)
	}
	for name := range req.Defines {
		results.addMacro(macro{name: name})
	}

	if isC(req.LanguageVersion) {
		results.addKeywords(cKeywords)
	} else {
		results.addKeywords(cppKeywords)
		results.addClassPattern()
	}
	return results.sorted(), nil
}

// source returns the unsaved buffer for path, or its disk contents.
func (e *Engine) source(req parser.Request, path string) (string, error) {
	if content, ok := req.UnsavedFiles[path]; ok {
		return content, nil
	}
	data, err := e.readFile(path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrNotFound, "cannot read %s: %v", path, err)
	}
	return string(data), nil
}

// includeHeader resolves, preprocesses and collects one header, recursively.
func (e *Engine) includeHeader(r *request, inc include, fromDir string, depth int) {
	if depth > e.maxIncludeDepth || r.ctx.Err() != nil {
		return
	}
	path, content, ok := e.resolveInclude(r.req, inc, fromDir)
	if !ok {
		e.logger.Debugw("include not found", logger.FieldFile, inc.path)
		return
	}
	if r.visited[path] {
		return
	}
	r.visited[path] = true

	dir := filepath.Dir(path)
	pp := preprocess(content, r.defines, -1, func(nested include) {
		e.includeHeader(r, nested, dir, depth+1)
	})
	r.macros = append(r.macros, pp.macros...)

	tree, err := parse(r.ctx, []byte(pp.text))
	if err != nil {
		e.logger.Debugw("failed to parse header", logger.FieldFile, path, logger.FieldError, err)
		return
	}
	defer tree.Close()
	r.headers.merge(collect(tree.RootNode(), []byte(pp.text)))
}

// resolveInclude finds the header named by inc. Quoted includes search the
// including file's directory first; unsaved buffers win over disk.
func (e *Engine) resolveInclude(req parser.Request, inc include, fromDir string) (string, string, bool) {
	var candidates []string
	if filepath.IsAbs(inc.path) {
		candidates = append(candidates, inc.path)
	} else {
		if !inc.angled {
			candidates = append(candidates, filepath.Join(fromDir, inc.path))
		}
		for _, dir := range req.IncludePaths {
			candidates = append(candidates, filepath.Join(dir, inc.path))
		}
	}

	for _, candidate := range candidates {
		candidate = filepath.Clean(candidate)
		if content, ok := req.UnsavedFiles[candidate]; ok {
			return candidate, content, true
		}
		if data, err := e.readFile(candidate); err == nil {
			return candidate, string(data), true
		}
	}
	return "", "", false
}

// addMembers offers the fields and methods of the object's class.
func (e *Engine) addMembers(results *resultSet, all *unit, sc scope, object []string) {
	lookup := func(name string) (symbol, bool) {
		for i := len(sc.locals) - 1; i >= 0; i-- {
			if sc.locals[i].name == name {
				return sc.locals[i], true
			}
		}
		for i := len(all.globals) - 1; i >= 0; i-- {
			if s := all.globals[i]; s.name == name && s.kind == ipc.CompletionVariable {
				return s, true
			}
		}
		return symbol{}, false
	}

	var class *classInfo
	if object[0] == "this" {
		class = all.resolveClass(sc.class)
	} else if v, ok := lookup(object[0]); ok {
		class = all.resolveClass(v.typeName)
	} else if c := all.resolveClass(sc.class); c != nil {
		// implicit this->field
		if f, ok := findMember(all, c, object[0], 0); ok {
			class = all.resolveClass(f.typeName)
		}
	}

	for _, name := range object[1:] {
		if class == nil {
			break
		}
		f, ok := findMember(all, class, name, 0)
		if !ok {
			class = nil
			break
		}
		class = all.resolveClass(f.typeName)
	}

	if class == nil {
		e.logger.Debugw("member access on unknown type", "object", strings.Join(object, "."))
		return
	}
	addClassMembers(results, all, class, 0)
}

func addClassMembers(results *resultSet, all *unit, c *classInfo, depth int) {
	if depth > 8 {
		return
	}
	for _, m := range c.members {
		results.addSymbol(m, parser.PriorityMember)
	}
	for _, base := range c.bases {
		if b := all.resolveClass(base); b != nil && b != c {
			addClassMembers(results, all, b, depth+1)
		}
	}
}

func findMember(all *unit, c *classInfo, name string, depth int) (symbol, bool) {
	if depth > 8 {
		return symbol{}, false
	}
	for _, m := range c.members {
		if m.name == name {
			return m, true
		}
	}
	for _, base := range c.bases {
		if b := all.resolveClass(base); b != nil && b != c {
			if m, ok := findMember(all, b, name, depth+1); ok {
				return m, true
			}
		}
	}
	return symbol{}, false
}

func globalPriority(s symbol) uint32 {
	switch s.kind {
	case ipc.CompletionClass, ipc.CompletionEnumeration:
		return parser.PriorityType
	case ipc.CompletionEnumerator:
		return parser.PriorityConstant
	case ipc.CompletionNamespace:
		return parser.PriorityNamespace
	default:
		return parser.PriorityDeclaration
	}
}

func isC(languageVersion string) bool {
	v := strings.ToLower(languageVersion)
	return strings.HasPrefix(v, "c") && !strings.HasPrefix(v, "c++") || strings.HasPrefix(v, "gnu") && !strings.HasPrefix(v, "gnu++")
}

func parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(cpp.GetLanguage())
	return p.ParseCtx(ctx, nil, src)
}
