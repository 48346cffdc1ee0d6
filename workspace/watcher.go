package workspace

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/clangcomplete/assist"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/logger"
)

// Watch starts reloading open documents when they change on disk. Documents
// with unsaved edits are left alone. Directories are watched rather than
// files so that editors saving through a rename are still seen.
func (w *Workspace) Watch() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	w.watcher = watcher
	for path := range w.docs {
		w.watchLocked(path)
	}
	go w.watchLoop(watcher)
	return nil
}

// Stop ends watching. Pending reloads are dropped.
func (w *Workspace) Stop() error {
	w.mu.Lock()
	watcher := w.watcher
	w.watcher = nil
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	return watcher.Close()
}

func (w *Workspace) watchLocked(path string) {
	if w.watcher == nil {
		return
	}
	dir := filepath.Dir(path)
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warnw("cannot watch directory", logger.FieldFile, dir, logger.FieldError, err)
	}
}

func (w *Workspace) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.scheduleReload(filepath.Clean(event.Name))

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("file watcher error", logger.FieldError, err)
		}
	}
}

func (w *Workspace) scheduleReload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, ok := w.docs[path]
	if !ok || doc.modified || w.watcher == nil {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		if err := w.reload(path); err != nil {
			w.logger.Warnw("reload failed", logger.FieldFile, path, logger.FieldError, err)
		}
	})
}

func (w *Workspace) reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	w.mu.Lock()
	delete(w.timers, path)
	doc, ok := w.docs[path]
	if !ok || doc.modified || doc.content == string(data) {
		w.mu.Unlock()
		return nil
	}
	doc.content = string(data)
	doc.revision++
	if err := w.registerLocked(doc); err != nil {
		w.mu.Unlock()
		return err
	}
	snapshot := w.documentLocked(doc)
	callbacks := append([]func(assist.Document){}, w.onChange...)
	w.mu.Unlock()

	w.logger.Infow("reloaded document", logger.FieldFile, path, logger.FieldVersion, snapshot.Revision)
	for _, fn := range callbacks {
		fn(snapshot)
	}
	return nil
}
