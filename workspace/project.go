package workspace

import (
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
)

// ProjectPart is one compilation configuration and the files built with it.
type ProjectPart struct {
	ID              string   `toml:"id"`
	Files           []string `toml:"files"`
	Defines         []string `toml:"defines"`
	IncludePaths    []string `toml:"include_paths"`
	LanguageVersion string   `toml:"language_version"`
}

// Container returns the wire form of p.
func (p ProjectPart) Container() ipc.ProjectPartContainer {
	return ipc.ProjectPartContainer{
		ProjectPartID:   p.ID,
		Defines:         append([]string(nil), p.Defines...),
		IncludePaths:    append([]string(nil), p.IncludePaths...),
		LanguageVersion: p.LanguageVersion,
	}
}

// Project is a project description file:
//
//	name = "app"
//
//	[[part]]
//	id = "app"
//	files = ["src/main.cpp"]
//	defines = ["DEBUG", "LEVEL=2"]
//	include_paths = ["include"]
//	language_version = "c++17"
type Project struct {
	Name  string        `toml:"name"`
	Parts []ProjectPart `toml:"part"`
}

// LoadProjectFile reads a project description. Relative file and include
// paths are resolved against the directory of path.
func LoadProjectFile(path string) (*Project, error) {
	var project Project
	meta, err := toml.DecodeFile(path, &project)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read project file %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Newf("unknown keys in project file %s: %v", path, undecoded)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve directory of %s", path)
	}

	seen := map[string]bool{}
	for i := range project.Parts {
		part := &project.Parts[i]
		if part.ID == "" {
			return nil, errors.Newf("project file %s: part %d has no id", path, i+1)
		}
		if seen[part.ID] {
			return nil, errors.Newf("project file %s: duplicate part id %q", path, part.ID)
		}
		seen[part.ID] = true
		part.Files = resolve(base, part.Files)
		part.IncludePaths = resolve(base, part.IncludePaths)
	}
	return &project, nil
}

func resolve(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = filepath.Clean(p)
		} else {
			out[i] = filepath.Join(base, p)
		}
	}
	return out
}
