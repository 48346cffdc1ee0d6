// Package ipctest provides test doubles for the ipc package.
package ipctest

import (
	"strings"
	"sync"
	"time"

	"github.com/teranos/clangcomplete/ipc"
)

// Verify SenderSpy implements ipc.Sender
var _ ipc.Sender = (*SenderSpy)(nil)

// SenderSpy records every command instead of transmitting it.
type SenderSpy struct {
	mu       sync.Mutex
	messages []ipc.Message
	log      strings.Builder
	changed  chan struct{}
}

// NewSenderSpy returns an empty spy.
func NewSenderSpy() *SenderSpy {
	return &SenderSpy{changed: make(chan struct{})}
}

func (s *SenderSpy) record(msg ipc.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.log.WriteString(ipc.Describe(msg))
	close(s.changed)
	s.changed = make(chan struct{})
	return nil
}

func (s *SenderSpy) End() error {
	return s.record(ipc.EndCommand{})
}

func (s *SenderSpy) RegisterTranslationUnitsForCodeCompletion(cmd ipc.RegisterTranslationUnitForCodeCompletionCommand) error {
	return s.record(cmd)
}

func (s *SenderSpy) UnregisterTranslationUnitsForCodeCompletion(cmd ipc.UnregisterTranslationUnitsForCodeCompletionCommand) error {
	return s.record(cmd)
}

func (s *SenderSpy) RegisterProjectPartsForCodeCompletion(cmd ipc.RegisterProjectPartsForCodeCompletionCommand) error {
	return s.record(cmd)
}

func (s *SenderSpy) UnregisterProjectPartsForCodeCompletion(cmd ipc.UnregisterProjectPartsForCodeCompletionCommand) error {
	return s.record(cmd)
}

func (s *SenderSpy) CompleteCode(cmd ipc.CompleteCodeCommand) error {
	return s.record(cmd)
}

// Log returns every recorded command in the protocol log format.
func (s *SenderSpy) Log() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.String()
}

// Messages returns a copy of the recorded commands in send order.
func (s *SenderSpy) Messages() []ipc.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ipc.Message(nil), s.messages...)
}

// Kinds returns the kinds of the recorded commands in send order.
func (s *SenderSpy) Kinds() []ipc.MessageKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]ipc.MessageKind, len(s.messages))
	for i, m := range s.messages {
		kinds[i] = m.Kind()
	}
	return kinds
}

// Len returns the number of recorded commands.
func (s *SenderSpy) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Reset clears the log.
func (s *SenderSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.log.Reset()
}

// WaitForLen blocks until at least n commands are recorded or the timeout
// elapses, and reports whether the count was reached.
func (s *SenderSpy) WaitForLen(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		s.mu.Lock()
		count := len(s.messages)
		changed := s.changed
		s.mu.Unlock()

		if count >= n {
			return true
		}
		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}
