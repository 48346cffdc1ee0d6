package parser

import "strings"

// Offset converts a 1-based line and byte column into a byte offset, clamped
// to the content.
func Offset(content string, line, column uint32) int {
	if line == 0 {
		line = 1
	}
	if column == 0 {
		column = 1
	}

	offset := 0
	for l := uint32(1); l < line; l++ {
		next := strings.IndexByte(content[offset:], '\n')
		if next < 0 {
			return len(content)
		}
		offset += next + 1
	}

	lineEnd := strings.IndexByte(content[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(content) - offset
	}
	col := int(column) - 1
	if col > lineEnd {
		col = lineEnd
	}
	return offset + col
}

// Position converts a byte offset into a 1-based line and byte column.
func Position(content string, offset int) (line, column uint32) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	before := content[:offset]
	line = uint32(strings.Count(before, "\n")) + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return line, uint32(offset-lineStart) + 1
}
