package chunk

// String is an in-memory CompletionString. Parser engines build completion
// results with it; it is also what tests hand to Extract.
type String struct {
	chunks []stringChunk
}

type stringChunk struct {
	kind   Kind
	text   string
	nested *String
}

// NewString starts an empty completion string.
func NewString() *String {
	return &String{}
}

// Add appends a plain chunk.
func (s *String) Add(kind Kind, text string) *String {
	s.chunks = append(s.chunks, stringChunk{kind: kind, text: text})
	return s
}

// AddOptional appends an Optional chunk holding nested.
func (s *String) AddOptional(nested *String) *String {
	s.chunks = append(s.chunks, stringChunk{kind: Optional, nested: nested})
	return s
}

// FromChunks builds a completion string from a chunk tree.
func FromChunks(chunks []Chunk) *String {
	s := NewString()
	for _, c := range chunks {
		if c.Kind == Optional {
			s.AddOptional(FromChunks(c.OptionalChunks))
			continue
		}
		s.Add(c.Kind, c.Text)
	}
	return s
}

func (s *String) ChunkCount() int {
	if s == nil {
		return 0
	}
	return len(s.chunks)
}

func (s *String) ChunkKind(i int) Kind {
	if s == nil || i < 0 || i >= len(s.chunks) {
		return Invalid
	}
	return s.chunks[i].kind
}

func (s *String) ChunkText(i int) string {
	if s == nil || i < 0 || i >= len(s.chunks) {
		return ""
	}
	return s.chunks[i].text
}

func (s *String) ChunkCompletionString(i int) CompletionString {
	if s == nil || i < 0 || i >= len(s.chunks) || s.chunks[i].kind != Optional {
		return nil
	}
	if s.chunks[i].nested == nil {
		return nil
	}
	return s.chunks[i].nested
}
