// Package assist turns a completion request at a cursor into a proposal
// model. A Processor answers either immediately or later through its async
// handler; the Waiter unifies both paths behind one bounded call.
package assist

import (
	"path/filepath"

	"github.com/teranos/clangcomplete/proposal"
)

// Document is the editor's view of one open file.
type Document struct {
	FilePath      string
	Content       string
	Revision      uint32
	ProjectPartID string
	// IncludePaths of the owning project part, searched by include completion.
	IncludePaths []string
}

// Interface is what a processor sees of the editor at request time.
type Interface interface {
	Document() Document
	Position() int
	// SearchPaths lists directories for include completion, document
	// directory first.
	SearchPaths() []string
}

type requestInterface struct {
	doc      Document
	position int
	extra    []string
}

// NewInterface describes a request at position in doc. extraSearchPaths are
// searched after the document directory and before the project include paths.
func NewInterface(doc Document, position int, extraSearchPaths []string) Interface {
	if position < 0 {
		position = 0
	}
	if position > len(doc.Content) {
		position = len(doc.Content)
	}
	return requestInterface{doc: doc, position: position, extra: extraSearchPaths}
}

func (r requestInterface) Document() Document { return r.doc }
func (r requestInterface) Position() int      { return r.position }

func (r requestInterface) SearchPaths() []string {
	seen := map[string]bool{}
	var paths []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}
	if r.doc.FilePath != "" {
		add(filepath.Dir(r.doc.FilePath))
	}
	for _, p := range r.extra {
		add(p)
	}
	for _, p := range r.doc.IncludePaths {
		add(p)
	}
	return paths
}

// Proposal is the result of one request.
type Proposal interface {
	// Model returns the items, or nil when the request failed.
	Model() *proposal.Model
	// BasePosition is the document offset where the completed word starts.
	BasePosition() int
	// Release drops everything except the model.
	Release()
}

// Processor produces proposals.
type Processor interface {
	SetAsyncCompletionAvailableHandler(func(Proposal))
	// Perform returns a proposal when it can answer at once, or nil when the
	// answer arrives later through the async handler.
	Perform(Interface) Proposal
}

// Canceler is implemented by processors that can abandon an async request.
type Canceler interface {
	Cancel()
}

type staticProposal struct {
	model *proposal.Model
	base  int
}

// NewProposal wraps a ready model. A nil model is an invalid result.
func NewProposal(model *proposal.Model, basePosition int) Proposal {
	return &staticProposal{model: model, base: basePosition}
}

func (p *staticProposal) Model() *proposal.Model { return p.model }
func (p *staticProposal) BasePosition() int      { return p.base }

// Release is a no-op: the model is all a static proposal holds.
func (p *staticProposal) Release() {}
