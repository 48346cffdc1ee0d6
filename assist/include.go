package assist

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/proposal"
)

var (
	includeLine   = regexp.MustCompile(`^\s*#\s*(?:include|include_next|import)\s*(["<])([^">]*)$`)
	directiveLine = regexp.MustCompile(`^\s*#\s*([A-Za-z_]*)$`)
)

var preprocessorDirectives = []string{
	"define", "elif", "else", "endif", "error", "if", "ifdef", "ifndef",
	"import", "include", "include_next", "line", "pragma", "undef", "warning",
}

var headerSuffixes = map[string]bool{
	".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".h++": true,
	".inl": true, ".tcc": true, ".ipp": true,
}

// linePrefix returns the text between the start of the cursor line and the cursor.
func linePrefix(iface Interface) string {
	content := iface.Document().Content
	pos := iface.Position()
	start := strings.LastIndexByte(content[:pos], '\n') + 1
	return content[start:pos]
}

// completeInclude lists headers and directories for an #include path under
// the cursor. It returns nil outside include directives.
func completeInclude(iface Interface) Proposal {
	m := includeLine.FindStringSubmatch(linePrefix(iface))
	if m == nil {
		return nil
	}
	angled := m[1] == "<"
	partial := m[2]
	dir, prefix := "", partial
	if i := strings.LastIndexByte(partial, '/'); i >= 0 {
		dir, prefix = partial[:i+1], partial[i+1:]
	}

	docDir := ""
	if path := iface.Document().FilePath; path != "" {
		docDir = filepath.Dir(path)
	}

	seen := map[string]bool{}
	var items []proposal.Item
	for _, base := range iface.SearchPaths() {
		if angled && base == docDir {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(base, filepath.FromSlash(dir)))
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			if isDir(base, dir, e) {
				name += "/"
				if !seen[name] {
					seen[name] = true
					items = append(items, proposal.NewItem(name, ipc.CompletionDirectory))
				}
				continue
			}
			if ext := filepath.Ext(name); ext != "" && !headerSuffixes[strings.ToLower(ext)] {
				continue
			}
			if !seen[name] {
				seen[name] = true
				items = append(items, proposal.NewItem(name, ipc.CompletionFile))
			}
		}
	}

	return NewProposal(proposal.NewModel(items).FilterPrefix(prefix), iface.Position()-len(prefix))
}

func isDir(base, dir string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(base, filepath.FromSlash(dir), e.Name()))
	return err == nil && info.IsDir()
}

// completeDirective offers preprocessor directive names right after '#'.
func completeDirective(iface Interface) Proposal {
	m := directiveLine.FindStringSubmatch(linePrefix(iface))
	if m == nil {
		return nil
	}
	items := make([]proposal.Item, 0, len(preprocessorDirectives))
	for _, d := range preprocessorDirectives {
		items = append(items, proposal.NewItem(d, ipc.CompletionPreprocessor))
	}
	return NewProposal(proposal.NewModel(items).FilterPrefix(m[1]), iface.Position()-len(m[1]))
}
