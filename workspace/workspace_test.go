package workspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/clangcomplete/assist"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/ipc/ipctest"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newWorkspace(t *testing.T, opts ...Option) (*Workspace, *ipctest.SenderSpy) {
	spy := ipctest.NewSenderSpy()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t).Sugar())}, opts...)
	return New(spy, opts...), spy
}

func lastUnits(t *testing.T, spy *ipctest.SenderSpy) []ipc.FileContainer {
	t.Helper()
	msgs := spy.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if cmd, ok := msgs[i].(ipc.RegisterTranslationUnitForCodeCompletionCommand); ok {
			return cmd.FileContainers
		}
	}
	t.Fatal("no translation unit registration recorded")
	return nil
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.toml")
	writeFile(t, path, `
name = "app"

[[part]]
id = "app"
files = ["src/main.cpp", "/abs/other.cpp"]
defines = ["DEBUG", "LEVEL=2"]
include_paths = ["include"]
language_version = "c++17"
`)

	project, err := LoadProjectFile(path)
	require.NoError(t, err)
	assert.Equal(t, "app", project.Name)
	require.Len(t, project.Parts, 1)

	part := project.Parts[0]
	assert.Equal(t, []string{filepath.Join(dir, "src", "main.cpp"), "/abs/other.cpp"}, part.Files)
	assert.Equal(t, []string{filepath.Join(dir, "include")}, part.IncludePaths)

	container := part.Container()
	assert.Equal(t, "app", container.ProjectPartID)
	assert.Equal(t, []string{"DEBUG", "LEVEL=2"}, container.Defines)
	assert.Equal(t, "c++17", container.LanguageVersion)
}

func TestLoadProjectFileRejectsBadParts(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing id", "[[part]]\nfiles = [\"a.cpp\"]\n", "has no id"},
		{"duplicate id", "[[part]]\nid = \"a\"\n[[part]]\nid = \"a\"\n", "duplicate part id"},
		{"unknown key", "[[part]]\nid = \"a\"\nflags = [\"-O2\"]\n", "unknown keys"},
		{"syntax", "[[part]\n", "failed to read project file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "project.toml")
			writeFile(t, path, tt.content)
			_, err := LoadProjectFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpenRegistersSavedFile(t *testing.T) {
	ws, spy := newWorkspace(t)
	path := filepath.Join(t.TempDir(), "main.cpp")
	writeFile(t, path, "int main() {}\n")

	doc, err := ws.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "int main() {}\n", doc.Content)
	assert.Equal(t, uint32(1), doc.Revision)
	assert.Empty(t, doc.ProjectPartID)

	units := lastUnits(t, spy)
	require.Len(t, units, 1)
	assert.Equal(t, path, units[0].FilePath)
	assert.False(t, units[0].HasUnsavedContent)
	assert.Equal(t, uint32(1), units[0].DocumentRevision)
}

func TestOpenMissingFile(t *testing.T) {
	ws, spy := newWorkspace(t)
	_, err := ws.Open(filepath.Join(t.TempDir(), "nope.cpp"))
	require.Error(t, err)
	assert.Zero(t, spy.Len())
}

func TestEditRegistersUnsavedContent(t *testing.T) {
	ws, spy := newWorkspace(t)
	path := filepath.Join(t.TempDir(), "main.cpp")
	writeFile(t, path, "int main() {}\n")
	_, err := ws.Open(path)
	require.NoError(t, err)

	doc, err := ws.Edit(path, "int main() { return 0; }\n")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), doc.Revision)

	units := lastUnits(t, spy)
	require.Len(t, units, 1)
	assert.True(t, units[0].HasUnsavedContent)
	assert.Equal(t, "int main() { return 0; }\n", units[0].UnsavedContent)
	assert.Equal(t, uint32(2), units[0].DocumentRevision)
}

func TestEditRequiresOpenDocument(t *testing.T) {
	ws, _ := newWorkspace(t)
	_, err := ws.Edit("/nowhere/x.cpp", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCloseUnregisters(t *testing.T) {
	ws, spy := newWorkspace(t)
	path := filepath.Join(t.TempDir(), "main.cpp")
	writeFile(t, path, "")
	_, err := ws.Open(path)
	require.NoError(t, err)
	spy.Reset()

	require.NoError(t, ws.Close(path))
	require.NoError(t, ws.Close(path))

	assert.Equal(t, []ipc.MessageKind{ipc.KindUnregisterTranslationUnitsForCodeCompletion}, spy.Kinds())
	_, ok := ws.Document(path)
	assert.False(t, ok)
}

func TestProjectPartAssignsOpenDocuments(t *testing.T) {
	ws, spy := newWorkspace(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "main.cpp")
	writeFile(t, path, "")
	_, err := ws.Open(path)
	require.NoError(t, err)
	spy.Reset()

	part := ProjectPart{ID: "app", Files: []string{path}, IncludePaths: []string{filepath.Join(dir, "include")}}
	require.NoError(t, ws.UpdateProjectPart(part))

	kinds := spy.Kinds()
	require.Len(t, kinds, 2)
	assert.Equal(t, ipc.KindRegisterProjectPartsForCodeCompletion, kinds[0])
	assert.Equal(t, ipc.KindRegisterTranslationUnitForCodeCompletion, kinds[1])
	assert.Equal(t, "app", lastUnits(t, spy)[0].ProjectPartID)

	doc, ok := ws.Document(path)
	require.True(t, ok)
	assert.Equal(t, "app", doc.ProjectPartID)
	assert.Equal(t, part.IncludePaths, doc.IncludePaths)

	// Updating settings of the same part does not re-register units.
	spy.Reset()
	part.Defines = []string{"DEBUG"}
	require.NoError(t, ws.UpdateProjectPart(part))
	assert.Equal(t, []ipc.MessageKind{ipc.KindRegisterProjectPartsForCodeCompletion}, spy.Kinds())
}

func TestProjectPartRelativeFiles(t *testing.T) {
	ws, spy := newWorkspace(t)
	path := filepath.Join(t.TempDir(), "main.cpp")
	writeFile(t, path, "")
	_, err := ws.Open(path)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(cwd, path)
	require.NoError(t, err)
	spy.Reset()

	require.NoError(t, ws.UpdateProjectPart(ProjectPart{ID: "app", Files: []string{rel}}))
	assert.Equal(t, "app", lastUnits(t, spy)[0].ProjectPartID)

	doc, ok := ws.Document(path)
	require.True(t, ok)
	assert.Equal(t, "app", doc.ProjectPartID)

	require.NoError(t, ws.RemoveProjectPart("app"))
	doc, ok = ws.Document(path)
	require.True(t, ok)
	assert.Empty(t, doc.ProjectPartID)
}

func TestRemoveProjectPart(t *testing.T) {
	ws, spy := newWorkspace(t)
	path := filepath.Join(t.TempDir(), "main.cpp")
	writeFile(t, path, "")
	require.NoError(t, ws.UpdateProjectPart(ProjectPart{ID: "app", Files: []string{path}}))
	_, err := ws.Open(path)
	require.NoError(t, err)
	spy.Reset()

	require.NoError(t, ws.RemoveProjectPart("app"))
	require.NoError(t, ws.RemoveProjectPart("app"))
	assert.Equal(t, []ipc.MessageKind{ipc.KindUnregisterProjectPartsForCodeCompletion}, spy.Kinds())

	doc, ok := ws.Document(path)
	require.True(t, ok)
	assert.Empty(t, doc.ProjectPartID)
}

func TestUpdateProjectPartRequiresID(t *testing.T) {
	ws, _ := newWorkspace(t)
	err := ws.UpdateProjectPart(ProjectPart{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestLoadProject(t *testing.T) {
	ws, spy := newWorkspace(t)
	require.NoError(t, ws.LoadProject(&Project{Parts: []ProjectPart{{ID: "a"}, {ID: "b"}}}))
	assert.Equal(t,
		"RegisterProjectPartsForCodeCompletionCommand\n"+
			"  ProjectPartContainer id: a\n"+
			"RegisterProjectPartsForCodeCompletionCommand\n"+
			"  ProjectPartContainer id: b\n",
		spy.Log())
}

func TestWatchReloadsSavedDocument(t *testing.T) {
	ws, spy := newWorkspace(t, WithDebounce(10*time.Millisecond))
	path := filepath.Join(t.TempDir(), "main.cpp")
	writeFile(t, path, "int a;\n")
	_, err := ws.Open(path)
	require.NoError(t, err)

	changed := make(chan assist.Document, 4)
	ws.OnChange(func(doc assist.Document) { changed <- doc })
	require.NoError(t, ws.Watch())
	t.Cleanup(func() { _ = ws.Stop() })

	writeFile(t, path, "int b;\n")

	select {
	case doc := <-changed:
		assert.Equal(t, "int b;\n", doc.Content)
		assert.Equal(t, uint32(2), doc.Revision)
	case <-time.After(5 * time.Second):
		t.Fatal("document was not reloaded")
	}
	units := lastUnits(t, spy)
	assert.Equal(t, uint32(2), units[0].DocumentRevision)
}

func TestWatchLeavesEditedDocument(t *testing.T) {
	ws, _ := newWorkspace(t, WithDebounce(10*time.Millisecond))
	path := filepath.Join(t.TempDir(), "main.cpp")
	writeFile(t, path, "int a;\n")
	_, err := ws.Open(path)
	require.NoError(t, err)
	_, err = ws.Edit(path, "int edited;\n")
	require.NoError(t, err)

	require.NoError(t, ws.Watch())
	t.Cleanup(func() { _ = ws.Stop() })

	writeFile(t, path, "int b;\n")
	time.Sleep(100 * time.Millisecond)

	doc, ok := ws.Document(path)
	require.True(t, ok)
	assert.Equal(t, "int edited;\n", doc.Content)
}
