package treesitter

import "strings"

type contextKind int

const (
	contextGlobal contextKind = iota
	contextMember
	contextDoxygen
	contextNone // inside a plain comment
)

// completionContext is what the text before the cursor asks for.
type completionContext struct {
	kind        contextKind
	prefixStart int
	object      []string // member access chain, outermost first: a.b-> is [a b]
}

// detectContext classifies the cursor position from the raw text.
func detectContext(content string, cursor int) completionContext {
	start := cursor
	for start > 0 && isIdentByte(content[start-1]) {
		start--
	}
	ctx := completionContext{kind: contextGlobal, prefixStart: start}

	if inComment(content, start) {
		ctx.kind = contextNone
		if start > 0 && (content[start-1] == '\\' || content[start-1] == '@') {
			ctx.kind = contextDoxygen
		}
		return ctx
	}

	if chain, ok := memberChain(content, start); ok {
		ctx.kind = contextMember
		ctx.object = chain
	}
	return ctx
}

// memberChain reads "a.b->" backwards from end and returns [a b].
func memberChain(content string, end int) ([]string, bool) {
	var chain []string
	pos := end
	for {
		pos = skipSpaceBack(content, pos)
		switch {
		case pos >= 2 && content[pos-2:pos] == "->":
			pos -= 2
		case pos >= 1 && content[pos-1] == '.' && (pos < 2 || !isDigitByte(content[pos-2])) && (pos < 2 || content[pos-2] != '.'):
			pos--
		default:
			if len(chain) == 0 {
				return nil, false
			}
			reverse(chain)
			return chain, true
		}

		pos = skipSpaceBack(content, pos)
		identEnd := pos
		for pos > 0 && isIdentByte(content[pos-1]) {
			pos--
		}
		if pos == identEnd {
			// call results and subscripts are not resolved
			return nil, false
		}
		chain = append(chain, content[pos:identEnd])
	}
}

// inComment reports whether offset lies inside a // or /* */ comment.
func inComment(content string, offset int) bool {
	const (
		code = iota
		lineComment
		blockComment
		stringLit
		charLit
	)
	state := code
	for i := 0; i < offset && i < len(content); i++ {
		c := content[i]
		switch state {
		case code:
			switch {
			case strings.HasPrefix(content[i:], "//"):
				state = lineComment
				i++
			case strings.HasPrefix(content[i:], "/*"):
				state = blockComment
				i++
			case c == '"':
				state = stringLit
			case c == '\'':
				state = charLit
			}
		case lineComment:
			if c == '\n' {
				state = code
			}
		case blockComment:
			if strings.HasPrefix(content[i:], "*/") && i+1 < offset {
				state = code
				i++
			}
		case stringLit, charLit:
			switch {
			case c == '\\':
				i++
			case c == '\n':
				state = code
			case c == '"' && state == stringLit, c == '\'' && state == charLit:
				state = code
			}
		}
	}
	return state == lineComment || state == blockComment
}

// statementStart returns the offset where the statement holding cursor begins
// on its line.
func statementStart(content string, cursor int) int {
	i := cursor
	for i > 0 {
		switch content[i-1] {
		case '\n', ';', '{', '}':
			return i
		}
		i--
	}
	return 0
}

func skipSpaceBack(content string, pos int) int {
	for pos > 0 && (content[pos-1] == ' ' || content[pos-1] == '\t' || content[pos-1] == '\n' || content[pos-1] == '\r') {
		pos--
	}
	return pos
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
