package assist

import (
	"context"
	"time"

	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/proposal"
	"go.uber.org/zap"
)

// Completer is the entry point for completion requests. Requests on one
// Completer are serialized by its Waiter.
type Completer struct {
	backend Backend
	waiter  *Waiter
	logger  *zap.SugaredLogger
}

// NewCompleter sends requests through backend and waits at most timeout for
// each; zero means DefaultTimeout.
func NewCompleter(backend Backend, timeout time.Duration, logger *zap.SugaredLogger) *Completer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Completer{
		backend: backend,
		waiter:  NewWaiter(timeout, logger),
		logger:  logger,
	}
}

// RequestCompletion completes doc at cursorOffset. extraSearchPaths are used
// for include completion. A timeout or a failed backend answer is returned as
// an error for which errors.IsNoCompletions is true.
func (c *Completer) RequestCompletion(ctx context.Context, doc Document, cursorOffset int, extraSearchPaths []string) (*proposal.Model, error) {
	start := time.Now()
	processor := NewClangProcessor(c.backend, c.logger)
	model, err := c.waiter.Wait(ctx, processor, NewInterface(doc, cursorOffset, extraSearchPaths))
	if err != nil {
		return nil, errors.Wrapf(err, "completion at %s:%d", doc.FilePath, cursorOffset)
	}
	c.logger.Debugw("completion finished",
		logger.FieldFile, doc.FilePath,
		logger.FieldOffset, cursorOffset,
		logger.FieldCount, model.Size(),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return model, nil
}
