package ipc

import (
	"slices"
	"strings"

	"github.com/teranos/clangcomplete/chunk"
)

// FileContainer identifies one tracked source file.
type FileContainer struct {
	FilePath          string `msgpack:"path" json:"path" yaml:"path"`
	ProjectPartID     string `msgpack:"project_part" json:"project_part" yaml:"project_part"` // empty: project-less
	UnsavedContent    string `msgpack:"unsaved,omitempty" json:"unsaved_content,omitempty" yaml:"unsaved_content,omitempty"`
	HasUnsavedContent bool   `msgpack:"has_unsaved" json:"has_unsaved_content" yaml:"has_unsaved_content"`
	DocumentRevision  uint32 `msgpack:"revision" json:"revision" yaml:"revision"`
}

// NewFileContainer returns a container for a file saved on disk.
func NewFileContainer(filePath, projectPartID string) FileContainer {
	return FileContainer{FilePath: filePath, ProjectPartID: projectPartID}
}

// NewUnsavedFileContainer returns a container carrying an editor buffer snapshot.
func NewUnsavedFileContainer(filePath, projectPartID, content string, revision uint32) FileContainer {
	return FileContainer{
		FilePath:          filePath,
		ProjectPartID:     projectPartID,
		UnsavedContent:    content,
		HasUnsavedContent: true,
		DocumentRevision:  revision,
	}
}

// ProjectPartContainer identifies one compilation configuration.
type ProjectPartContainer struct {
	ProjectPartID   string   `msgpack:"id" json:"id" yaml:"id"`
	Defines         []string `msgpack:"defines,omitempty" json:"defines,omitempty" yaml:"defines,omitempty"` // NAME or NAME=VALUE
	IncludePaths    []string `msgpack:"includes,omitempty" json:"include_paths,omitempty" yaml:"include_paths,omitempty"`
	LanguageVersion string   `msgpack:"std,omitempty" json:"language_version,omitempty" yaml:"language_version,omitempty"` // e.g. c++17
}

// NewProjectPartContainer returns a container with the given settings.
func NewProjectPartContainer(id string, defines, includePaths []string) ProjectPartContainer {
	return ProjectPartContainer{ProjectPartID: id, Defines: defines, IncludePaths: includePaths}
}

// Arguments renders the settings as compiler-style arguments.
func (p ProjectPartContainer) Arguments() []string {
	args := make([]string, 0, len(p.Defines)+len(p.IncludePaths)+1)
	if p.LanguageVersion != "" {
		args = append(args, "-std="+p.LanguageVersion)
	}
	for _, d := range p.Defines {
		args = append(args, "-D"+d)
	}
	for _, inc := range p.IncludePaths {
		args = append(args, "-I"+inc)
	}
	return args
}

// DefineMap splits Defines into name/value pairs. Bare names map to "1".
func (p ProjectPartContainer) DefineMap() map[string]string {
	defines := make(map[string]string, len(p.Defines))
	for _, d := range p.Defines {
		name, value, found := strings.Cut(d, "=")
		if !found {
			value = "1"
		}
		defines[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return defines
}

// Equal reports structural equality.
func (p ProjectPartContainer) Equal(other ProjectPartContainer) bool {
	return p.ProjectPartID == other.ProjectPartID &&
		p.LanguageVersion == other.LanguageVersion &&
		slices.Equal(p.Defines, other.Defines) &&
		slices.Equal(p.IncludePaths, other.IncludePaths)
}

// CompletionKind classifies a completion candidate.
type CompletionKind uint8

const (
	CompletionOther CompletionKind = iota
	CompletionKeyword
	CompletionFunction
	CompletionVariable
	CompletionClass
	CompletionEnumeration
	CompletionEnumerator
	CompletionMacro
	CompletionNamespace
	CompletionField
	CompletionMethod
	CompletionDoxygen
	CompletionPreprocessor
	CompletionFile
	CompletionDirectory
)

var completionKindNames = [...]string{
	CompletionOther:        "other",
	CompletionKeyword:      "keyword",
	CompletionFunction:     "function",
	CompletionVariable:     "variable",
	CompletionClass:        "class",
	CompletionEnumeration:  "enum",
	CompletionEnumerator:   "enumerator",
	CompletionMacro:        "macro",
	CompletionNamespace:    "namespace",
	CompletionField:        "field",
	CompletionMethod:       "method",
	CompletionDoxygen:      "doxygen",
	CompletionPreprocessor: "preprocessor",
	CompletionFile:         "file",
	CompletionDirectory:    "directory",
}

func (k CompletionKind) String() string {
	if int(k) < len(completionKindNames) {
		return completionKindNames[k]
	}
	return "other"
}

// MarshalText lets json and yaml output show kind names.
func (k CompletionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *CompletionKind) UnmarshalText(text []byte) error {
	for i, name := range completionKindNames {
		if name == string(text) {
			*k = CompletionKind(i)
			return nil
		}
	}
	*k = CompletionOther
	return nil
}

// CodeCompletion is one completion candidate produced by the backend.
type CodeCompletion struct {
	Text     string         `msgpack:"text" json:"text" yaml:"text"` // typed text
	Chunks   []chunk.Chunk  `msgpack:"chunks" json:"chunks" yaml:"chunks"`
	Kind     CompletionKind `msgpack:"kind" json:"kind" yaml:"kind"`
	Priority uint32         `msgpack:"priority" json:"priority" yaml:"priority"` // lower sorts first
}
