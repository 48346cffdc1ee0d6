package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetPositionRoundTrip(t *testing.T) {
	content := "int a;\nvoid f()\n{\n    a\n}\n"

	tests := []struct {
		offset       int
		line, column uint32
	}{
		{0, 1, 1},
		{6, 1, 7},
		{7, 2, 1},
		{22, 4, 5},
		{len(content), 6, 1},
	}

	for _, tt := range tests {
		line, column := Position(content, tt.offset)
		assert.Equal(t, tt.line, line, "offset %d", tt.offset)
		assert.Equal(t, tt.column, column, "offset %d", tt.offset)
		assert.Equal(t, tt.offset, Offset(content, tt.line, tt.column))
	}
}

func TestOffsetClamps(t *testing.T) {
	content := "ab\ncd"
	assert.Equal(t, 2, Offset(content, 1, 40))
	assert.Equal(t, len(content), Offset(content, 9, 1))
	assert.Equal(t, 0, Offset(content, 0, 0))
	assert.Equal(t, len(content), Offset(content, 2, 3))
}
