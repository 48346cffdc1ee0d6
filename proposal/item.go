// Package proposal holds the ordered result set of one completion request.
package proposal

import (
	"strings"

	"github.com/teranos/clangcomplete/chunk"
	"github.com/teranos/clangcomplete/ipc"
)

const (
	optionalOpen  = "<i>"
	optionalClose = "</i>"
	placeholder   = "$"
)

// Item is one completion candidate. Items are immutable once built.
type Item struct {
	Text      string             `json:"text" yaml:"text"`             // display text
	TypedText string             `json:"typed_text" yaml:"typed_text"` // filter key
	Data      string             `json:"data" yaml:"data"`             // insertion text
	Snippet   bool               `json:"snippet" yaml:"snippet"`
	Kind      ipc.CompletionKind `json:"kind" yaml:"kind"`
	Priority  uint32             `json:"priority" yaml:"priority"`
}

// NewItem builds a plain item that displays and inserts its text.
func NewItem(text string, kind ipc.CompletionKind) Item {
	return Item{Text: text, TypedText: text, Data: text, Kind: kind}
}

// FromCodeCompletion renders a backend completion into an item.
//
// Completions with a call or template shape display as a signature
// ("void f(char c<i>, int optional</i>)"); everything else displays its typed
// text. A completion is a snippet when a placeholder sits outside every
// optional group; its insertion text marks placeholders as $name$.
func FromCodeCompletion(cc ipc.CodeCompletion) Item {
	typed := cc.Text
	if typed == "" {
		typed = chunk.TypedTextOf(cc.Chunks)
	}

	item := Item{
		TypedText: typed,
		Kind:      cc.Kind,
		Priority:  cc.Priority,
		Snippet:   hasPlaceholder(cc.Chunks),
	}

	if isSignature(cc.Chunks) {
		item.Text = renderDisplay(cc.Chunks)
	} else {
		item.Text = typed
	}

	if item.Snippet {
		item.Data = renderSnippet(cc.Chunks)
	} else {
		item.Data = typed
	}
	return item
}

func hasPlaceholder(chunks []chunk.Chunk) bool {
	for _, c := range chunks {
		if c.Kind == chunk.Placeholder {
			return true
		}
	}
	return false
}

func isSignature(chunks []chunk.Chunk) bool {
	for _, c := range chunks {
		switch c.Kind {
		case chunk.LeftParen, chunk.LeftAngle, chunk.Placeholder, chunk.Optional:
			return true
		}
	}
	return false
}

// renderDisplay writes the result type, a space, then every chunk. Optional
// groups are flattened into a single <i>..</i> span.
func renderDisplay(chunks []chunk.Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		if c.Kind == chunk.ResultType {
			sb.WriteString(c.Text)
			sb.WriteByte(' ')
		}
	}
	for _, c := range chunks {
		switch c.Kind {
		case chunk.ResultType:
		case chunk.Optional:
			sb.WriteString(optionalOpen)
			for _, nested := range chunk.Flatten(c.OptionalChunks) {
				writeDisplayChunk(&sb, nested)
			}
			sb.WriteString(optionalClose)
		default:
			writeDisplayChunk(&sb, c)
		}
	}
	return sb.String()
}

func writeDisplayChunk(sb *strings.Builder, c chunk.Chunk) {
	switch c.Kind {
	case chunk.VerticalSpace:
		sb.WriteByte(' ')
	default:
		sb.WriteString(c.Text)
	}
}

// renderSnippet writes the insertion text: optional groups, result types and
// informative chunks are left out.
func renderSnippet(chunks []chunk.Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		switch c.Kind {
		case chunk.Optional, chunk.ResultType, chunk.Informative:
		case chunk.Placeholder:
			sb.WriteString(placeholder)
			sb.WriteString(c.Text)
			sb.WriteString(placeholder)
		default:
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}
