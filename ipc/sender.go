package ipc

import (
	"io"
	"sync"

	"github.com/teranos/clangcomplete/logger"
	"go.uber.org/zap"
)

// Sender transmits client commands to the backend. Every operation is fire
// and forget; an error means the channel itself failed.
type Sender interface {
	End() error
	RegisterTranslationUnitsForCodeCompletion(cmd RegisterTranslationUnitForCodeCompletionCommand) error
	UnregisterTranslationUnitsForCodeCompletion(cmd UnregisterTranslationUnitsForCodeCompletionCommand) error
	RegisterProjectPartsForCodeCompletion(cmd RegisterProjectPartsForCodeCompletionCommand) error
	UnregisterProjectPartsForCodeCompletion(cmd UnregisterProjectPartsForCodeCompletionCommand) error
	CompleteCode(cmd CompleteCodeCommand) error
}

// Verify StreamSender implements Sender
var _ Sender = (*StreamSender)(nil)

// StreamSender writes commands as frames to a byte stream, typically the
// backend's stdin.
type StreamSender struct {
	mu     sync.Mutex
	enc    *Encoder
	logger *zap.SugaredLogger
}

// NewStreamSender returns a sender writing to w.
func NewStreamSender(w io.Writer, logger *zap.SugaredLogger) *StreamSender {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &StreamSender{enc: NewEncoder(w), logger: logger}
}

// Send writes any message. Writes are serialized so frames never interleave.
func (s *StreamSender) Send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debugw("sending", logger.FieldCommand, msg.Kind().String())
	return s.enc.Encode(msg)
}

func (s *StreamSender) End() error {
	return s.Send(EndCommand{})
}

func (s *StreamSender) RegisterTranslationUnitsForCodeCompletion(cmd RegisterTranslationUnitForCodeCompletionCommand) error {
	return s.Send(cmd)
}

func (s *StreamSender) UnregisterTranslationUnitsForCodeCompletion(cmd UnregisterTranslationUnitsForCodeCompletionCommand) error {
	return s.Send(cmd)
}

func (s *StreamSender) RegisterProjectPartsForCodeCompletion(cmd RegisterProjectPartsForCodeCompletionCommand) error {
	return s.Send(cmd)
}

func (s *StreamSender) UnregisterProjectPartsForCodeCompletion(cmd UnregisterProjectPartsForCodeCompletionCommand) error {
	return s.Send(cmd)
}

func (s *StreamSender) CompleteCode(cmd CompleteCodeCommand) error {
	return s.Send(cmd)
}
