package treesitter

import (
	"strconv"
	"strings"
	"unicode"
)

// evalCondition evaluates a #if / #elif expression. Unknown identifiers are 0
// and malformed expressions are false.
func evalCondition(expr string, defines map[string]string) bool {
	p := &exprParser{tokens: tokenize(expr), defines: defines}
	v, ok := p.parseOr()
	if !ok || p.pos != len(p.tokens) {
		return false
	}
	return v != 0
}

type exprParser struct {
	tokens  []string
	pos     int
	defines map[string]string
	depth   int
}

const maxMacroExpansion = 16

func (p *exprParser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *exprParser) next() string {
	t := p.peek()
	if t != "" {
		p.pos++
	}
	return t
}

func (p *exprParser) parseOr() (int64, bool) {
	left, ok := p.parseAnd()
	for ok && p.peek() == "||" {
		p.next()
		var right int64
		right, ok = p.parseAnd()
		left = boolInt(left != 0 || right != 0)
	}
	return left, ok
}

func (p *exprParser) parseAnd() (int64, bool) {
	left, ok := p.parseEquality()
	for ok && p.peek() == "&&" {
		p.next()
		var right int64
		right, ok = p.parseEquality()
		left = boolInt(left != 0 && right != 0)
	}
	return left, ok
}

func (p *exprParser) parseEquality() (int64, bool) {
	left, ok := p.parseRelational()
	for ok {
		op := p.peek()
		if op != "==" && op != "!=" {
			break
		}
		p.next()
		var right int64
		right, ok = p.parseRelational()
		if op == "==" {
			left = boolInt(left == right)
		} else {
			left = boolInt(left != right)
		}
	}
	return left, ok
}

func (p *exprParser) parseRelational() (int64, bool) {
	left, ok := p.parseAdditive()
	for ok {
		op := p.peek()
		if op != "<" && op != ">" && op != "<=" && op != ">=" {
			break
		}
		p.next()
		var right int64
		right, ok = p.parseAdditive()
		switch op {
		case "<":
			left = boolInt(left < right)
		case ">":
			left = boolInt(left > right)
		case "<=":
			left = boolInt(left <= right)
		case ">=":
			left = boolInt(left >= right)
		}
	}
	return left, ok
}

func (p *exprParser) parseAdditive() (int64, bool) {
	left, ok := p.parseMultiplicative()
	for ok {
		op := p.peek()
		if op != "+" && op != "-" {
			break
		}
		p.next()
		var right int64
		right, ok = p.parseMultiplicative()
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, ok
}

func (p *exprParser) parseMultiplicative() (int64, bool) {
	left, ok := p.parseUnary()
	for ok {
		op := p.peek()
		if op != "*" && op != "/" && op != "%" {
			break
		}
		p.next()
		var right int64
		right, ok = p.parseUnary()
		switch {
		case op == "*":
			left *= right
		case right == 0:
			return 0, false
		case op == "/":
			left /= right
		default:
			left %= right
		}
	}
	return left, ok
}

func (p *exprParser) parseUnary() (int64, bool) {
	switch p.peek() {
	case "!":
		p.next()
		v, ok := p.parseUnary()
		return boolInt(v == 0), ok
	case "-":
		p.next()
		v, ok := p.parseUnary()
		return -v, ok
	case "+":
		p.next()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (int64, bool) {
	tok := p.next()
	switch {
	case tok == "":
		return 0, false
	case tok == "(":
		v, ok := p.parseOr()
		if !ok || p.next() != ")" {
			return 0, false
		}
		return v, true
	case tok == "defined":
		name := p.next()
		if name == "(" {
			name = p.next()
			if p.next() != ")" {
				return 0, false
			}
		}
		_, defined := p.defines[name]
		return boolInt(defined), isIdentifier(name)
	case isNumber(tok):
		return parseNumber(tok), true
	case isIdentifier(tok):
		return p.expand(tok), true
	default:
		return 0, false
	}
}

// expand evaluates an object-like macro's value as an expression.
func (p *exprParser) expand(name string) int64 {
	value, ok := p.defines[name]
	if !ok || p.depth >= maxMacroExpansion {
		return 0
	}
	sub := &exprParser{tokens: tokenize(value), defines: p.defines, depth: p.depth + 1}
	v, ok := sub.parseOr()
	if !ok || sub.pos != len(sub.tokens) {
		return 0
	}
	return v
}

func tokenize(expr string) []string {
	var tokens []string
	for i := 0; i < len(expr); {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case isIdentStart(c) || unicode.IsDigit(c):
			j := i + 1
			for j < len(expr) && (isIdentStart(rune(expr[j])) || unicode.IsDigit(rune(expr[j]))) {
				j++
			}
			tokens = append(tokens, expr[i:j])
			i = j
		default:
			if i+1 < len(expr) {
				two := expr[i : i+2]
				switch two {
				case "&&", "||", "==", "!=", "<=", ">=":
					tokens = append(tokens, two)
					i += 2
					continue
				}
			}
			tokens = append(tokens, expr[i:i+1])
			i++
		}
	}
	return tokens
}

func parseNumber(tok string) int64 {
	tok = strings.TrimRight(tok, "uUlL")
	v, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0
	}
	return v
}

func isNumber(tok string) bool {
	return tok != "" && unicode.IsDigit(rune(tok[0]))
}

func isIdentifier(tok string) bool {
	return tok != "" && isIdentStart(rune(tok[0]))
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
