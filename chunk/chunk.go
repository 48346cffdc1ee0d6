// Package chunk models completion strings as ordered sequences of typed
// fragments and extracts them from parser-side completion string handles.
package chunk

import "strings"

// Kind tags a chunk. Values follow the clang CXCompletionChunkKind numbering
// so they survive the wire unchanged.
type Kind uint8

const (
	Optional Kind = iota
	TypedText
	Text
	Placeholder
	Informative
	CurrentParameter
	LeftParen
	RightParen
	LeftBracket
	RightBracket
	LeftBrace
	RightBrace
	LeftAngle
	RightAngle
	Comma
	ResultType
	Colon
	SemiColon
	Equal
	HorizontalSpace
	VerticalSpace
	Invalid
)

var kindNames = [...]string{
	Optional:         "Optional",
	TypedText:        "TypedText",
	Text:             "Text",
	Placeholder:      "Placeholder",
	Informative:      "Informative",
	CurrentParameter: "CurrentParameter",
	LeftParen:        "LeftParen",
	RightParen:       "RightParen",
	LeftBracket:      "LeftBracket",
	RightBracket:     "RightBracket",
	LeftBrace:        "LeftBrace",
	RightBrace:       "RightBrace",
	LeftAngle:        "LeftAngle",
	RightAngle:       "RightAngle",
	Comma:            "Comma",
	ResultType:       "ResultType",
	Colon:            "Colon",
	SemiColon:        "SemiColon",
	Equal:            "Equal",
	HorizontalSpace:  "HorizontalSpace",
	VerticalSpace:    "VerticalSpace",
	Invalid:          "Invalid",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Invalid"
}

// Chunk is one typed fragment of a completion string.
// OptionalChunks is non-nil only when Kind == Optional.
type Chunk struct {
	Kind           Kind    `msgpack:"kind" json:"kind"`
	Text           string  `msgpack:"text" json:"text"`
	OptionalChunks []Chunk `msgpack:"optional,omitempty" json:"optional,omitempty"`
}

// New returns a plain chunk.
func New(kind Kind, text string) Chunk {
	return Chunk{Kind: kind, Text: text}
}

// NewOptional wraps nested chunks in an Optional chunk.
func NewOptional(nested ...Chunk) Chunk {
	return Chunk{Kind: Optional, OptionalChunks: nested}
}

// Equal reports structural equality, including nested optional groups.
func (c Chunk) Equal(other Chunk) bool {
	if c.Kind != other.Kind || c.Text != other.Text {
		return false
	}
	return EqualChunks(c.OptionalChunks, other.OptionalChunks)
}

// EqualChunks reports whether two chunk sequences are structurally equal.
func EqualChunks(a, b []Chunk) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// TypedTextOf returns the text of the first TypedText chunk, the filter key of
// the completion.
func TypedTextOf(chunks []Chunk) string {
	for _, c := range chunks {
		if c.Kind == TypedText {
			return c.Text
		}
	}
	return ""
}

// Join concatenates the text of every chunk in a flattened copy of chunks.
func Join(chunks []Chunk) string {
	var sb strings.Builder
	for _, c := range Flatten(chunks) {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// Flatten splices the contents of every Optional chunk in place, recursively,
// dropping the Optional wrappers.
func Flatten(chunks []Chunk) []Chunk {
	out := make([]Chunk, 0, len(chunks))
	return flattenInto(out, chunks, 0)
}

func flattenInto(out, chunks []Chunk, depth int) []Chunk {
	if depth > MaxDepth {
		return out
	}
	for _, c := range chunks {
		if c.Kind == Optional {
			out = flattenInto(out, c.OptionalChunks, depth+1)
			continue
		}
		out = append(out, c)
	}
	return out
}
