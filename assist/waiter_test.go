package assist

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/proposal"
)

// scriptedProcessor answers according to its fields.
type scriptedProcessor struct {
	immediate Proposal
	async     Proposal
	delay     time.Duration
	never     bool
	performed chan struct{}
	canceled  atomic.Bool

	handler func(Proposal)
}

func (p *scriptedProcessor) SetAsyncCompletionAvailableHandler(fn func(Proposal)) {
	p.handler = fn
}

func (p *scriptedProcessor) Perform(Interface) Proposal {
	if p.performed != nil {
		close(p.performed)
	}
	if p.immediate != nil {
		return p.immediate
	}
	if !p.never {
		go func() {
			time.Sleep(p.delay)
			p.handler(p.async)
		}()
	}
	return nil
}

func (p *scriptedProcessor) Cancel() {
	p.canceled.Store(true)
}

// trackedProposal records whether it was released.
type trackedProposal struct {
	model    *proposal.Model
	released atomic.Bool
}

func (p *trackedProposal) Model() *proposal.Model { return p.model }
func (p *trackedProposal) BasePosition() int      { return 0 }
func (p *trackedProposal) Release()               { p.released.Store(true) }

func keywordModel(words ...string) *proposal.Model {
	items := make([]proposal.Item, len(words))
	for i, w := range words {
		items[i] = proposal.NewItem(w, ipc.CompletionKeyword)
	}
	return proposal.NewModel(items)
}

func testInterface() Interface {
	return NewInterface(Document{FilePath: "/src/a.cpp", Content: "int x;"}, 6, nil)
}

func TestWaiterImmediateResult(t *testing.T) {
	w := NewWaiter(time.Second, zaptest.NewLogger(t).Sugar())
	pr := &trackedProposal{model: keywordModel("brief")}

	model, err := w.Wait(context.Background(), &scriptedProcessor{immediate: pr}, testInterface())
	require.NoError(t, err)
	assert.True(t, model.HasItem("brief"))
	assert.True(t, pr.released.Load(), "proposal is released once the model is taken")
}

func TestWaiterAsyncResult(t *testing.T) {
	w := NewWaiter(time.Second, zaptest.NewLogger(t).Sugar())
	pr := &trackedProposal{model: keywordModel("param")}

	model, err := w.Wait(context.Background(), &scriptedProcessor{async: pr, delay: 20 * time.Millisecond}, testInterface())
	require.NoError(t, err)
	assert.True(t, model.HasItem("param"))
	assert.True(t, pr.released.Load())
}

func TestWaiterInvalidResult(t *testing.T) {
	w := NewWaiter(time.Second, zaptest.NewLogger(t).Sugar())

	_, err := w.Wait(context.Background(), &scriptedProcessor{async: NewProposal(nil, 0)}, testInterface())
	assert.True(t, errors.Is(err, errors.ErrInvalidResult))
	assert.True(t, errors.IsNoCompletions(err))

	_, err = w.Wait(context.Background(), &scriptedProcessor{async: nil}, testInterface())
	assert.True(t, errors.Is(err, errors.ErrInvalidResult))
}

func TestWaiterTimeoutDeterminism(t *testing.T) {
	if testing.Short() {
		t.Skip("waits the full default timeout")
	}
	w := NewWaiter(0, zaptest.NewLogger(t).Sugar())
	require.Equal(t, DefaultTimeout, w.Timeout())
	p := &scriptedProcessor{never: true}

	start := time.Now()
	_, err := w.Wait(context.Background(), p, testInterface())
	elapsed := time.Since(start)

	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.True(t, errors.IsNoCompletions(err))
	assert.GreaterOrEqual(t, elapsed, DefaultTimeout)
	assert.True(t, p.canceled.Load(), "timed out request is canceled")
}

func TestWaiterShortTimeout(t *testing.T) {
	w := NewWaiter(50*time.Millisecond, zaptest.NewLogger(t).Sugar())

	start := time.Now()
	_, err := w.Wait(context.Background(), &scriptedProcessor{never: true}, testInterface())
	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaiterLateAnswerAfterTimeout(t *testing.T) {
	w := NewWaiter(20*time.Millisecond, zaptest.NewLogger(t).Sugar())
	late := &trackedProposal{model: keywordModel("late")}
	p := &scriptedProcessor{async: late, delay: 100 * time.Millisecond}

	_, err := w.Wait(context.Background(), p, testInterface())
	require.True(t, errors.Is(err, errors.ErrTimeout))

	assert.Eventually(t, func() bool { return late.released.Load() }, time.Second, 10*time.Millisecond,
		"a late proposal nobody waits for is released")
}

func TestWaiterRejectsConcurrentRequest(t *testing.T) {
	w := NewWaiter(time.Second, zaptest.NewLogger(t).Sugar())
	first := &scriptedProcessor{never: true, performed: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := w.Wait(ctx, first, testInterface())
		done <- err
	}()
	<-first.performed

	_, err := w.Wait(context.Background(), &scriptedProcessor{immediate: NewProposal(keywordModel("x"), 0)}, testInterface())
	assert.True(t, errors.Is(err, errors.ErrRequestInFlight))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, first.canceled.Load())

	_, err = w.Wait(context.Background(), &scriptedProcessor{immediate: NewProposal(keywordModel("x"), 0)}, testInterface())
	assert.NoError(t, err, "the waiter is free again")
}
