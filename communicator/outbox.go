package communicator

import (
	"sync"

	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
	"go.uber.org/zap"
)

// Verify outbox implements ipc.Sender
var _ ipc.Sender = (*outbox)(nil)

// outbox queues the commands for one backend connection and writes them in
// order on its own goroutine. Queuing never blocks, so commands can be sent
// while c.mu is held without waiting on the backend's stdin.
type outbox struct {
	sender ipc.Sender
	logger *zap.SugaredLogger

	mu     sync.Mutex
	queue  []ipc.Message
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newOutbox(sender ipc.Sender, logger *zap.SugaredLogger) *outbox {
	o := &outbox{
		sender: sender,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *outbox) push(msg ipc.Message) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return errors.Wrapf(errors.ErrBackendLost, "cannot send %s", msg.Kind())
	}
	o.queue = append(o.queue, msg)
	o.mu.Unlock()

	o.signal()
	return nil
}

func (o *outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// close drops the unsent commands and stops the writer once its current
// write returns.
func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.queue = nil
	o.mu.Unlock()
	o.signal()
}

func (o *outbox) run() {
	defer close(o.done)
	for {
		o.mu.Lock()
		batch := o.queue
		o.queue = nil
		closed := o.closed
		o.mu.Unlock()

		if closed {
			return
		}
		for i, msg := range batch {
			if err := send(o.sender, msg); err != nil {
				// a failed write means the backend is gone; the exit watcher
				// takes it from here
				o.logger.Warnw("failed to write command",
					logger.FieldCommand, msg.Kind().String(),
					"dropped", len(batch)-i-1,
					logger.FieldError, err)
				o.close()
				return
			}
		}
		if len(batch) == 0 {
			<-o.wake
		}
	}
}

func (o *outbox) End() error {
	return o.push(ipc.EndCommand{})
}

func (o *outbox) RegisterTranslationUnitsForCodeCompletion(cmd ipc.RegisterTranslationUnitForCodeCompletionCommand) error {
	return o.push(cmd)
}

func (o *outbox) UnregisterTranslationUnitsForCodeCompletion(cmd ipc.UnregisterTranslationUnitsForCodeCompletionCommand) error {
	return o.push(cmd)
}

func (o *outbox) RegisterProjectPartsForCodeCompletion(cmd ipc.RegisterProjectPartsForCodeCompletionCommand) error {
	return o.push(cmd)
}

func (o *outbox) UnregisterProjectPartsForCodeCompletion(cmd ipc.UnregisterProjectPartsForCodeCompletionCommand) error {
	return o.push(cmd)
}

func (o *outbox) CompleteCode(cmd ipc.CompleteCodeCommand) error {
	return o.push(cmd)
}
