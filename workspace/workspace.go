// Package workspace tracks open documents and project parts and keeps the
// backend registrations in step with them.
package workspace

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/clangcomplete/assist"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
	"go.uber.org/zap"
)

// DefaultDebounce delays reloads of files that change on disk in bursts.
const DefaultDebounce = 200 * time.Millisecond

type document struct {
	path     string
	content  string
	revision uint32
	modified bool
}

// Workspace owns the editor-side state. Registration state proper lives in
// the sender, normally a communicator.Communicator.
type Workspace struct {
	sender   ipc.Sender
	logger   *zap.SugaredLogger
	debounce time.Duration

	mu         sync.Mutex
	docs       map[string]*document
	parts      map[string]ProjectPart
	fileToPart map[string]string
	// part each open document was last registered under
	registeredPart map[string]string
	watcher        *fsnotify.Watcher
	timers         map[string]*time.Timer
	onChange       []func(assist.Document)
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the workspace logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(w *Workspace) { w.logger = l }
}

// WithDebounce sets the disk reload debounce period.
func WithDebounce(d time.Duration) Option {
	return func(w *Workspace) { w.debounce = d }
}

// New returns an empty workspace registering through sender.
func New(sender ipc.Sender, opts ...Option) *Workspace {
	w := &Workspace{
		sender:     sender,
		logger:     zap.NewNop().Sugar(),
		debounce:   DefaultDebounce,
		docs:       map[string]*document{},
		parts:      map[string]ProjectPart{},
		fileToPart: map[string]string{},
		timers:     map[string]*time.Timer{},

		registeredPart: map[string]string{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnChange registers fn to run after a document is reloaded from disk.
func (w *Workspace) OnChange(fn func(assist.Document)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Open reads path from disk and registers it.
func (w *Workspace) Open(path string) (assist.Document, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return assist.Document{}, errors.Wrapf(err, "failed to resolve %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return assist.Document{}, errors.Wrapf(err, "failed to open %s", path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	doc, ok := w.docs[path]
	if !ok {
		doc = &document{path: path}
		w.docs[path] = doc
		w.watchLocked(path)
	}
	doc.content = string(data)
	doc.revision++
	doc.modified = false

	if err := w.registerLocked(doc); err != nil {
		return assist.Document{}, err
	}
	w.logger.Debugw("opened document", logger.FieldFile, path, logger.FieldProjectPart, w.fileToPart[path])
	return w.documentLocked(doc), nil
}

// Edit replaces the buffer of an open document and registers the unsaved
// content.
func (w *Workspace) Edit(path, content string) (assist.Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, ok := w.docs[w.key(path)]
	if !ok {
		return assist.Document{}, errors.NewNotFoundError("document %s is not open", path)
	}
	doc.content = content
	doc.revision++
	doc.modified = true

	if err := w.registerLocked(doc); err != nil {
		return assist.Document{}, err
	}
	return w.documentLocked(doc), nil
}

// Close forgets a document and unregisters it.
func (w *Workspace) Close(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := w.key(path)
	if _, ok := w.docs[key]; !ok {
		return nil
	}
	delete(w.docs, key)
	delete(w.registeredPart, key)
	if t, ok := w.timers[key]; ok {
		t.Stop()
		delete(w.timers, key)
	}

	return w.sender.UnregisterTranslationUnitsForCodeCompletion(ipc.UnregisterTranslationUnitsForCodeCompletionCommand{
		FilePaths: []string{key},
	})
}

// Document returns the current state of an open document.
func (w *Workspace) Document(path string) (assist.Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, ok := w.docs[w.key(path)]
	if !ok {
		return assist.Document{}, false
	}
	return w.documentLocked(doc), true
}

// UpdateProjectPart registers part, replacing a part with the same id, and
// re-registers the open documents whose part changed.
func (w *Workspace) UpdateProjectPart(part ProjectPart) error {
	if part.ID == "" {
		return errors.NewInvalidRequestError("project part id cannot be empty")
	}

	files := make([]string, 0, len(part.Files))
	for _, f := range part.Files {
		files = append(files, w.key(f))
	}
	part.Files = files

	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.parts[part.ID]; ok {
		for _, f := range old.Files {
			if w.fileToPart[f] == part.ID {
				delete(w.fileToPart, f)
			}
		}
	}
	w.parts[part.ID] = part
	for _, f := range part.Files {
		w.fileToPart[f] = part.ID
	}

	if err := w.sender.RegisterProjectPartsForCodeCompletion(ipc.RegisterProjectPartsForCodeCompletionCommand{
		ProjectContainers: []ipc.ProjectPartContainer{part.Container()},
	}); err != nil {
		return err
	}

	var moved []ipc.FileContainer
	for path, doc := range w.docs {
		if w.registeredPart[path] != w.fileToPart[path] {
			moved = append(moved, w.containerLocked(doc))
		}
	}
	slices.SortFunc(moved, func(a, b ipc.FileContainer) int { return strings.Compare(a.FilePath, b.FilePath) })
	return w.registerContainersLocked(moved)
}

// RemoveProjectPart unregisters a part. Its documents become project-less.
func (w *Workspace) RemoveProjectPart(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	part, ok := w.parts[id]
	if !ok {
		return nil
	}
	delete(w.parts, id)
	for _, f := range part.Files {
		if w.fileToPart[f] == id {
			delete(w.fileToPart, f)
		}
	}
	for path := range w.docs {
		if w.registeredPart[path] == id {
			w.registeredPart[path] = ""
		}
	}

	return w.sender.UnregisterProjectPartsForCodeCompletion(ipc.UnregisterProjectPartsForCodeCompletionCommand{
		ProjectPartIDs: []string{id},
	})
}

// LoadProject registers every part of project.
func (w *Workspace) LoadProject(project *Project) error {
	for _, part := range project.Parts {
		if err := w.UpdateProjectPart(part); err != nil {
			return errors.Wrapf(err, "failed to register project part %s", part.ID)
		}
	}
	return nil
}

func (w *Workspace) key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (w *Workspace) containerLocked(doc *document) ipc.FileContainer {
	part := w.fileToPart[doc.path]
	if doc.modified {
		return ipc.NewUnsavedFileContainer(doc.path, part, doc.content, doc.revision)
	}
	fc := ipc.NewFileContainer(doc.path, part)
	fc.DocumentRevision = doc.revision
	return fc
}

func (w *Workspace) registerLocked(doc *document) error {
	return w.registerContainersLocked([]ipc.FileContainer{w.containerLocked(doc)})
}

func (w *Workspace) registerContainersLocked(containers []ipc.FileContainer) error {
	if len(containers) == 0 {
		return nil
	}
	for _, fc := range containers {
		w.registeredPart[fc.FilePath] = fc.ProjectPartID
	}
	return w.sender.RegisterTranslationUnitsForCodeCompletion(ipc.RegisterTranslationUnitForCodeCompletionCommand{
		FileContainers: containers,
	})
}

func (w *Workspace) documentLocked(doc *document) assist.Document {
	d := assist.Document{
		FilePath:      doc.path,
		Content:       doc.content,
		Revision:      doc.revision,
		ProjectPartID: w.fileToPart[doc.path],
	}
	if part, ok := w.parts[d.ProjectPartID]; ok {
		d.IncludePaths = append([]string(nil), part.IncludePaths...)
	}
	return d
}
