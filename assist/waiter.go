package assist

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/proposal"
	"go.uber.org/zap"
)

// DefaultTimeout bounds the wait for an asynchronous proposal.
const DefaultTimeout = 5 * time.Second

// Waiter runs one request at a time against a Processor.
type Waiter struct {
	timeout time.Duration
	logger  *zap.SugaredLogger
	busy    atomic.Bool
}

// NewWaiter returns a waiter with the given bound; zero means DefaultTimeout.
func NewWaiter(timeout time.Duration, logger *zap.SugaredLogger) *Waiter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Waiter{timeout: timeout, logger: logger}
}

// Timeout returns the configured bound.
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

// Wait asks p for a proposal. An immediate answer is returned at once;
// otherwise Wait blocks until the async handler fires, the timeout elapses,
// or ctx is done. The proposal is released as soon as its model is taken.
func (w *Waiter) Wait(ctx context.Context, p Processor, iface Interface) (*proposal.Model, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return nil, errors.ErrRequestInFlight
	}
	defer w.busy.Store(false)

	results := make(chan Proposal, 1)
	var finished atomic.Bool
	defer func() {
		finished.Store(true)
		select {
		case pr := <-results:
			release(pr)
		default:
		}
	}()
	p.SetAsyncCompletionAvailableHandler(func(pr Proposal) {
		if finished.Load() {
			release(pr)
			return
		}
		select {
		case results <- pr:
		default:
			release(pr)
		}
	})

	if pr := p.Perform(iface); pr != nil {
		return take(pr)
	}

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case pr := <-results:
		return take(pr)
	case <-timer.C:
		cancel(p)
		w.logger.Debugw("completion timed out", "timeout", w.timeout.String())
		return nil, errors.Wrapf(errors.ErrTimeout, "no completion within %s", w.timeout)
	case <-ctx.Done():
		cancel(p)
		return nil, ctx.Err()
	}
}

func take(pr Proposal) (*proposal.Model, error) {
	if pr == nil {
		return nil, errors.Wrap(errors.ErrInvalidResult, "empty proposal")
	}
	model := pr.Model()
	pr.Release()
	if model == nil {
		return nil, errors.Wrap(errors.ErrInvalidResult, "proposal has no model")
	}
	return model, nil
}

func release(pr Proposal) {
	if pr != nil {
		pr.Release()
	}
}

func cancel(p Processor) {
	if c, ok := p.(Canceler); ok {
		c.Cancel()
	}
}
