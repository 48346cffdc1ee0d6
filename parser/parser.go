// Package parser defines the contract between the backend and the C/C++
// parsing engine that produces completion strings.
package parser

import (
	"context"

	"github.com/teranos/clangcomplete/chunk"
	"github.com/teranos/clangcomplete/ipc"
)

// Request describes one completion location.
type Request struct {
	FilePath string
	// UnsavedFiles maps paths to editor buffers; they win over disk contents.
	UnsavedFiles    map[string]string
	Defines         map[string]string
	IncludePaths    []string
	LanguageVersion string
	Line            uint32 // 1-based
	Column          uint32 // 1-based, in bytes
}

// Result is one completion candidate.
type Result struct {
	String   chunk.CompletionString
	Kind     ipc.CompletionKind
	Priority uint32
}

// Engine computes completions for a translation unit.
type Engine interface {
	Complete(ctx context.Context, req Request) ([]Result, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, req Request) ([]Result, error)

func (f EngineFunc) Complete(ctx context.Context, req Request) ([]Result, error) {
	return f(ctx, req)
}

// Priorities follow clang's code-completion priority scale: lower is better.
const (
	PriorityLocal       uint32 = 34
	PriorityMember      uint32 = 35
	PriorityKeyword     uint32 = 40
	PriorityCodePattern uint32 = 40
	PriorityDeclaration uint32 = 50
	PriorityType        uint32 = 50
	PriorityConstant    uint32 = 65
	PriorityMacro       uint32 = 70
	PriorityNamespace   uint32 = 75
)

// CodeCompletion extracts the chunk tree of r into its wire form.
func (r Result) CodeCompletion() ipc.CodeCompletion {
	chunks := chunk.Extract(r.String)
	return ipc.CodeCompletion{
		Text:     chunk.TypedTextOf(chunks),
		Chunks:   chunks,
		Kind:     r.Kind,
		Priority: r.Priority,
	}
}
