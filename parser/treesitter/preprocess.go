package treesitter

import (
	"regexp"
	"strings"
)

// macro is a #define seen while preprocessing.
type macro struct {
	name   string
	params []string // nil for object-like macros
	value  string
	offset int
}

func (m macro) functionLike() bool {
	return m.params != nil
}

// include is an active #include directive.
type include struct {
	path   string
	angled bool
	offset int // directive start
}

// preprocessed is a source file with inactive conditional branches blanked
// out. Blanking keeps byte offsets and line numbers of the original text.
type preprocessed struct {
	text     string
	macros   []macro
	includes []include
	defines  map[string]string // macro table after the last line
}

var (
	directiveRe = regexp.MustCompile(`^\s*#\s*([A-Za-z_]+)\s*(.*)$`)
	defineRe    = regexp.MustCompile(`^([A-Za-z_]\w*)(\(([^)]*)\))?\s*(.*)$`)
	includeRe   = regexp.MustCompile(`^(?:"([^"]*)"?|<([^>]*)>?)`)
)

type condFrame struct {
	parentActive bool
	active       bool
	taken        bool // some branch of this group was already active
}

// preprocess evaluates conditional compilation against defines, which is
// updated in place by #define and #undef. Only directives before limit
// contribute; limit < 0 means no limit. onInclude runs at each active
// #include so headers can extend defines before the next line is evaluated.
func preprocess(content string, defines map[string]string, limit int, onInclude func(include)) preprocessed {
	out := []byte(content)
	result := preprocessed{defines: defines}

	var stack []condFrame
	active := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		lineStart := offset
		offset += len(line)

		m := directiveRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			if !active() {
				blank(out, lineStart, offset)
			}
			continue
		}

		name, rest := m[1], stripComment(m[2])
		switch name {
		case "ifdef", "ifndef":
			_, defined := defines[firstWord(rest)]
			cond := defined == (name == "ifdef")
			parent := active()
			stack = append(stack, condFrame{parentActive: parent, active: parent && cond, taken: cond})
		case "if":
			parent := active()
			cond := parent && evalCondition(rest, defines)
			stack = append(stack, condFrame{parentActive: parent, active: cond, taken: cond})
		case "elif":
			if len(stack) == 0 {
				break
			}
			top := &stack[len(stack)-1]
			if top.taken {
				top.active = false
			} else {
				cond := top.parentActive && evalCondition(rest, defines)
				top.active, top.taken = cond, cond
			}
		case "else":
			if len(stack) == 0 {
				break
			}
			top := &stack[len(stack)-1]
			top.active = top.parentActive && !top.taken
			top.taken = true
		case "endif":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case "define":
			if active() && (limit < 0 || lineStart < limit) {
				if mac, ok := parseDefine(rest, lineStart); ok {
					defines[mac.name] = mac.value
					result.macros = append(result.macros, mac)
				}
			}
		case "undef":
			if active() && (limit < 0 || lineStart < limit) {
				delete(defines, firstWord(rest))
			}
		case "include", "include_next", "import":
			if active() && (limit < 0 || lineStart < limit) {
				if inc, ok := parseInclude(rest, lineStart); ok {
					result.includes = append(result.includes, inc)
					if onInclude != nil {
						onInclude(inc)
					}
				}
			}
		}

		// directives never reach the tree-sitter parser
		blank(out, lineStart, offset)
	}

	result.text = string(out)
	return result
}

func parseDefine(rest string, offset int) (macro, bool) {
	m := defineRe.FindStringSubmatch(rest)
	if m == nil {
		return macro{}, false
	}
	mac := macro{name: m[1], value: strings.TrimSpace(m[4]), offset: offset}
	if m[2] != "" {
		mac.params = []string{}
		for _, p := range strings.Split(m[3], ",") {
			if p = strings.TrimSpace(p); p != "" {
				mac.params = append(mac.params, p)
			}
		}
	}
	if mac.value == "" && !mac.functionLike() {
		mac.value = "1"
	}
	return mac, true
}

func parseInclude(rest string, offset int) (include, bool) {
	m := includeRe.FindStringSubmatch(strings.TrimSpace(rest))
	if m == nil {
		return include{}, false
	}
	if m[2] != "" || strings.HasPrefix(strings.TrimSpace(rest), "<") {
		return include{path: m[2], angled: true, offset: offset}, true
	}
	return include{path: m[1], offset: offset}, true
}

// blank replaces everything except newlines in out[from:to] with spaces.
func blank(out []byte, from, to int) {
	for i := from; i < to && i < len(out); i++ {
		if out[i] != '\n' && out[i] != '\r' {
			out[i] = ' '
		}
	}
}

func stripComment(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "/*"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
