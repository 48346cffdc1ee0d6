package chunk

// MaxDepth bounds optional-group nesting. Levels below it are dropped.
const MaxDepth = 64

// CompletionString is the accessor contract of a parser-side completion
// string handle.
type CompletionString interface {
	ChunkCount() int
	ChunkKind(i int) Kind
	ChunkText(i int) string
	// ChunkCompletionString returns the nested string of an Optional chunk;
	// nil for every other kind.
	ChunkCompletionString(i int) CompletionString
}

// Extract converts a completion string into a chunk tree. Optional chunks keep
// their nested chunks. A nil handle yields an empty sequence.
func Extract(cs CompletionString) []Chunk {
	return extract(cs, 0)
}

// ExtractFlat converts a completion string into a flat chunk sequence with the
// contents of every optional group spliced in place of its marker.
func ExtractFlat(cs CompletionString) []Chunk {
	return extractFlat(cs, nil, 0)
}

func extract(cs CompletionString, depth int) []Chunk {
	if isNil(cs) || depth > MaxDepth {
		return []Chunk{}
	}

	count := cs.ChunkCount()
	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		kind := cs.ChunkKind(i)
		if kind == Optional {
			chunks = append(chunks, Chunk{
				Kind:           Optional,
				Text:           cs.ChunkText(i),
				OptionalChunks: extract(cs.ChunkCompletionString(i), depth+1),
			})
			continue
		}
		chunks = append(chunks, Chunk{Kind: kind, Text: cs.ChunkText(i)})
	}
	return chunks
}

func extractFlat(cs CompletionString, out []Chunk, depth int) []Chunk {
	if out == nil {
		out = []Chunk{}
	}
	if isNil(cs) || depth > MaxDepth {
		return out
	}

	count := cs.ChunkCount()
	for i := 0; i < count; i++ {
		kind := cs.ChunkKind(i)
		if kind == Optional {
			out = extractFlat(cs.ChunkCompletionString(i), out, depth+1)
			continue
		}
		out = append(out, Chunk{Kind: kind, Text: cs.ChunkText(i)})
	}
	return out
}

// isNil catches typed nil handles as well as untyped ones.
func isNil(cs CompletionString) bool {
	if cs == nil {
		return true
	}
	if s, ok := cs.(*String); ok && s == nil {
		return true
	}
	return false
}
