// Package clangbackend is the backend side of the completion protocol. It
// keeps the registered project parts and translation units and answers
// completion requests through a parser engine.
package clangbackend

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/parser"
	"github.com/teranos/clangcomplete/version"
	"go.uber.org/zap"
)

// DefaultAliveInterval is how often the backend reports it is alive.
const DefaultAliveInterval = 2 * time.Second

// Server serves one session over a byte stream pair.
type Server struct {
	engine        parser.Engine
	logger        *zap.SugaredLogger
	aliveInterval time.Duration
	sessionID     string

	mu           sync.Mutex
	projectParts map[string]ipc.ProjectPartContainer
	units        map[string]ipc.FileContainer

	writeMu sync.Mutex
	enc     *ipc.Encoder

	inflight sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAliveInterval sets the heartbeat interval; zero disables heartbeats.
func WithAliveInterval(d time.Duration) Option {
	return func(s *Server) { s.aliveInterval = d }
}

// NewServer creates a server answering completions with engine.
func NewServer(engine parser.Engine, opts ...Option) *Server {
	s := &Server{
		engine:        engine,
		logger:        zap.NewNop().Sugar(),
		aliveInterval: DefaultAliveInterval,
		sessionID:     uuid.NewString(),
		projectParts:  map[string]ipc.ProjectPartContainer{},
		units:         map[string]ipc.FileContainer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.FieldSession, s.sessionID)
	return s
}

// SessionID identifies this server instance in the handshake.
func (s *Server) SessionID() string {
	return s.sessionID
}

// Serve reads commands from r and writes responses to w until EndCommand,
// end of input, or ctx cancellation. A clean end returns nil.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.enc = ipc.NewEncoder(w)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.send(ipc.ReadyCommand{
		ProtocolVersion: version.ProtocolVersion,
		SessionID:       s.sessionID,
		Pid:             os.Getpid(),
	}); err != nil {
		return errors.Wrap(err, "failed to send ready")
	}
	s.logger.Infow("backend ready", logger.FieldVersion, version.ProtocolVersion, logger.FieldPid, os.Getpid())

	if s.aliveInterval > 0 {
		go s.heartbeat(ctx)
	}

	msgs := make(chan ipc.Message)
	errs := make(chan error, 1)
	go func() {
		dec := ipc.NewDecoder(r)
		for {
			msg, err := dec.Decode()
			if err != nil {
				errs <- err
				return
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.inflight.Wait()
			return ctx.Err()
		case err := <-errs:
			s.inflight.Wait()
			if errors.Is(err, io.EOF) {
				s.logger.Infow("input closed, ending session")
				return nil
			}
			return errors.Wrap(err, "failed to read command")
		case msg := <-msgs:
			if _, ok := msg.(ipc.EndCommand); ok {
				s.inflight.Wait()
				s.logger.Infow("session ended")
				return s.send(ipc.SessionEndedCommand{})
			}
			s.handle(ctx, msg)
		}
	}
}

func (s *Server) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(s.aliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.send(ipc.AliveCommand{}); err != nil {
				return
			}
		}
	}
}

func (s *Server) send(msg ipc.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.enc.Encode(msg)
}

// sendOrLog sends a response; write failures end the session through the
// read side, so they are only logged here.
func (s *Server) sendOrLog(msg ipc.Message) {
	if err := s.send(msg); err != nil {
		s.logger.Warnw("failed to send response", logger.FieldCommand, msg.Kind().String(), logger.FieldError, err)
	}
}

// notify sends msgs in order off the main loop, which keeps reading
// commands while the client is slow to read responses. SessionEnded waits
// for pending notifications like it waits for completions.
func (s *Server) notify(msgs ...ipc.Message) {
	if len(msgs) == 0 {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		for _, msg := range msgs {
			s.sendOrLog(msg)
		}
	}()
}

func (s *Server) handle(ctx context.Context, msg ipc.Message) {
	s.logger.Debugw("received", logger.FieldCommand, msg.Kind().String())

	switch m := msg.(type) {
	case ipc.RegisterProjectPartsForCodeCompletionCommand:
		s.registerProjectParts(m)
	case ipc.UnregisterProjectPartsForCodeCompletionCommand:
		s.unregisterProjectParts(m)
	case ipc.RegisterTranslationUnitForCodeCompletionCommand:
		s.registerTranslationUnits(m)
	case ipc.UnregisterTranslationUnitsForCodeCompletionCommand:
		s.unregisterTranslationUnits(m)
	case ipc.CompleteCodeCommand:
		req, failure := s.prepareCompletion(m)
		if failure != nil {
			s.notify(failure)
			return
		}
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.complete(ctx, m, req)
		}()
	default:
		s.logger.Warnw("unexpected message", logger.FieldCommand, msg.Kind().String())
	}
}
