package assist

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/clangcomplete/chunk"
	"github.com/teranos/clangcomplete/communicator"
	"github.com/teranos/clangcomplete/ipc"
)

// fakeBackend records requests and lets the test answer them.
type fakeBackend struct {
	mu         sync.Mutex
	registered []ipc.FileContainer
	requests   []ipc.CompleteCodeCommand
	handlers   map[uint64]communicator.ResponseHandler
	forgotten  []uint64
	next       uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{handlers: map[uint64]communicator.ResponseHandler{}}
}

func (b *fakeBackend) RegisterTranslationUnitsForCodeCompletion(cmd ipc.RegisterTranslationUnitForCodeCompletionCommand) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered = append(b.registered, cmd.FileContainers...)
	return nil
}

func (b *fakeBackend) Complete(cmd ipc.CompleteCodeCommand, handler communicator.ResponseHandler) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	cmd.TicketNumber = b.next
	b.requests = append(b.requests, cmd)
	b.handlers[cmd.TicketNumber] = handler
	return cmd.TicketNumber, nil
}

func (b *fakeBackend) Forget(ticket uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forgotten = append(b.forgotten, ticket)
	delete(b.handlers, ticket)
}

func (b *fakeBackend) answer(ticket uint64, msg ipc.Message) {
	b.mu.Lock()
	h := b.handlers[ticket]
	delete(b.handlers, ticket)
	b.mu.Unlock()
	h(msg)
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("// "+name+"\n"), 0o644))
	}
}

func texts(pr Proposal) []string {
	m := pr.Model()
	out := make([]string, 0, m.Size())
	for i := 0; i < m.Size(); i++ {
		out = append(out, m.Text(i))
	}
	return out
}

func TestIncludeCompletion(t *testing.T) {
	project := t.TempDir()
	extra := t.TempDir()
	writeFiles(t, project, "myheader.h", "main.cpp", "sub/nested.hpp", ".hidden.h")
	writeFiles(t, extra, "extra.h", "vector")

	p := NewClangProcessor(newFakeBackend(), zaptest.NewLogger(t).Sugar())
	doc := func(content string) Interface {
		return NewInterface(Document{FilePath: filepath.Join(project, "main.cpp"), Content: content}, len(content), []string{extra})
	}

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "quoted prefix", content: `#include "my`, want: []string{"myheader.h"}},
		{name: "quoted lists dirs and headers", content: `#include "`, want: []string{"myheader.h", "sub/", "extra.h", "vector"}},
		{name: "subdirectory", content: `#include "sub/`, want: []string{"nested.hpp"}},
		{name: "angled skips document dir", content: `#include <`, want: []string{"extra.h", "vector"}},
		{name: "angled prefix", content: `  #  include <vec`, want: []string{"vector"}},
		{name: "include_next", content: `#include_next <ext`, want: []string{"extra.h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := p.Perform(doc(tt.content))
			require.NotNil(t, pr, "include completion answers at once")
			assert.ElementsMatch(t, tt.want, texts(pr))
		})
	}
}

func TestIncludeBasePosition(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "header.h")
	content := "int x;\n#include \"hea"

	pr := NewClangProcessor(newFakeBackend(), nil).Perform(
		NewInterface(Document{FilePath: filepath.Join(dir, "a.cpp"), Content: content}, len(content), nil))
	require.NotNil(t, pr)
	assert.Equal(t, len(content)-len("hea"), pr.BasePosition())
}

func TestDirectiveCompletion(t *testing.T) {
	p := NewClangProcessor(newFakeBackend(), nil)

	content := "int x;\n#if"
	pr := p.Perform(NewInterface(Document{FilePath: "/src/a.cpp", Content: content}, len(content), nil))
	require.NotNil(t, pr)
	assert.Equal(t, []string{"if", "ifdef", "ifndef"}, texts(pr))

	content = "  # "
	pr = p.Perform(NewInterface(Document{FilePath: "/src/a.cpp", Content: content}, len(content), nil))
	require.NotNil(t, pr)
	assert.Len(t, texts(pr), len(preprocessorDirectives))
}

func TestAsyncCompletionThroughBackend(t *testing.T) {
	backend := newFakeBackend()
	p := NewClangProcessor(backend, zaptest.NewLogger(t).Sugar())
	var got Proposal
	p.SetAsyncCompletionAvailableHandler(func(pr Proposal) { got = pr })

	content := "int value;\nint f() { return va"
	doc := Document{FilePath: "/src/a.cpp", Content: content, Revision: 4, ProjectPartID: "pp"}
	require.Nil(t, p.Perform(NewInterface(doc, len(content), nil)))

	require.Len(t, backend.registered, 1)
	assert.Equal(t, ipc.NewUnsavedFileContainer("/src/a.cpp", "pp", content, 4), backend.registered[0])
	require.Len(t, backend.requests, 1)
	req := backend.requests[0]
	assert.EqualValues(t, 2, req.Line)
	assert.EqualValues(t, len("int f() { return va")+1, req.Column)
	assert.Equal(t, "pp", req.ProjectPartID)

	backend.answer(req.TicketNumber, ipc.CodeCompletedCommand{
		TicketNumber: req.TicketNumber,
		CodeCompletions: []ipc.CodeCompletion{{
			Text:   "value",
			Chunks: []chunk.Chunk{chunk.New(chunk.ResultType, "int"), chunk.New(chunk.TypedText, "value")},
			Kind:   ipc.CompletionVariable,
		}},
	})
	require.NotNil(t, got)
	assert.True(t, got.Model().HasItem("value"))
	assert.Equal(t, len(content)-len("va"), got.BasePosition())
}

func TestAsyncFailureIsInvalidProposal(t *testing.T) {
	backend := newFakeBackend()
	p := NewClangProcessor(backend, zaptest.NewLogger(t).Sugar())
	var got Proposal
	p.SetAsyncCompletionAvailableHandler(func(pr Proposal) { got = pr })

	require.Nil(t, p.Perform(NewInterface(Document{FilePath: "/src/a.cpp", Content: "x"}, 1, nil)))
	ticket := backend.requests[0].TicketNumber
	backend.answer(ticket, ipc.TranslationUnitDoesNotExistCommand{
		FileContainer: ipc.NewFileContainer("/src/a.cpp", ""),
		TicketNumber:  ticket,
	})

	require.NotNil(t, got)
	assert.Nil(t, got.Model())
}

func TestCancelForgetsTicket(t *testing.T) {
	backend := newFakeBackend()
	p := NewClangProcessor(backend, nil)

	require.Nil(t, p.Perform(NewInterface(Document{FilePath: "/src/a.cpp", Content: "x"}, 1, nil)))
	p.Cancel()
	p.Cancel()
	assert.Equal(t, []uint64{1}, backend.forgotten)
}

func TestSearchPathsOrder(t *testing.T) {
	iface := NewInterface(Document{
		FilePath:     "/proj/src/a.cpp",
		IncludePaths: []string{"/proj/include", "/extra"},
	}, 0, []string{"/extra", "/proj/src"})

	assert.Equal(t, []string{"/proj/src", "/extra", "/proj/include"}, iface.SearchPaths())
}

func TestInterfaceClampsPosition(t *testing.T) {
	assert.Equal(t, 3, NewInterface(Document{Content: "abc"}, 99, nil).Position())
	assert.Equal(t, 0, NewInterface(Document{Content: "abc"}, -1, nil).Position())
}
