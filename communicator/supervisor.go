package communicator

import (
	"context"
	"io"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
)

// connect launches a backend, waits for its handshake and replays the
// registration state. With a fixed sender it only replays.
func (c *Communicator) connect(ctx context.Context) error {
	if c.launcher == nil {
		c.mu.Lock()
		defer c.unlock()
		if c.state.Terminal() {
			return errors.Wrapf(errors.ErrBackendUnavailable, "communicator %s", c.state)
		}
		c.becomeReadyLocked(c.fixedSender, nil)
		return nil
	}

	proc, err := c.launcher.Launch(c.runCtx)
	if err != nil {
		return errors.Wrap(err, "failed to launch backend")
	}
	conn := &connection{
		proc:    proc,
		started: time.Now(),
		ended:   make(chan struct{}),
		exited:  make(chan struct{}),
	}

	ready := make(chan ipc.ReadyCommand, 1)
	go c.readLoop(conn, ready)
	go c.watchExit(conn)

	timer := time.NewTimer(c.cfg.ReadyTimeout())
	defer timer.Stop()

	var hello ipc.ReadyCommand
	select {
	case msg, ok := <-ready:
		if !ok {
			_ = proc.Kill()
			return errors.Wrap(errors.ErrBackendLost, "backend exited before the handshake")
		}
		hello = msg
	case <-timer.C:
		_ = proc.Kill()
		return errors.Wrapf(errors.ErrBackendUnavailable, "backend sent no handshake within %s", c.cfg.ReadyTimeout())
	case <-ctx.Done():
		_ = proc.Kill()
		return ctx.Err()
	}

	if err := c.checkProtocol(hello.ProtocolVersion); err != nil {
		_ = proc.Kill()
		return err
	}

	c.mu.Lock()
	if c.state.Terminal() {
		c.unlock()
		_ = proc.Kill()
		return errors.Wrapf(errors.ErrBackendUnavailable, "communicator %s", c.state)
	}
	c.session = hello
	conn.out = newOutbox(ipc.NewStreamSender(proc.Stdin(), c.logger), c.logger)
	c.becomeReadyLocked(conn.out, conn)
	c.unlock()

	c.logger.Infow("backend connected",
		logger.FieldPid, hello.Pid,
		logger.FieldSession, hello.SessionID,
		logger.FieldVersion, hello.ProtocolVersion)

	if c.cfg.AliveTimeout() > 0 {
		go c.watchdog(conn)
	}
	return nil
}

func (c *Communicator) checkProtocol(v string) error {
	ver, err := semver.NewVersion(v)
	if err != nil {
		return errors.Wrapf(errors.ErrProtocolMismatch, "backend sent invalid protocol version %q", v)
	}
	if !c.constraint.Check(ver) {
		return errors.WithHint(
			errors.Wrapf(errors.ErrProtocolMismatch, "backend protocol %s does not satisfy %s", v, c.constraint),
			"use a clangbackend built from the same release as the client")
	}
	return nil
}

// becomeReadyLocked installs sender, replays every registration, flushes the
// queued completions and reports the reinitialization after a restart.
func (c *Communicator) becomeReadyLocked(sender ipc.Sender, conn *connection) {
	c.sender = sender
	c.conn = conn
	c.lastSeen = time.Now()

	replay := c.reg.replay()
	for _, msg := range replay {
		if err := send(sender, msg); err != nil {
			c.logger.Warnw("replay command failed", logger.FieldCommand, msg.Kind().String(), logger.FieldError, err)
		}
	}
	c.logger.Infow("registration state replayed", logger.FieldCount, len(replay))

	c.setStateLocked(StateReady)
	queued := c.queued
	c.queued = nil
	for _, q := range queued {
		if err := c.sendCompletionLocked(q.cmd, q.handler); err != nil {
			c.logger.Warnw("queued completion failed", logger.FieldTicket, q.cmd.TicketNumber, logger.FieldError, err)
		}
	}

	c.attempts = 0
	if c.restarted {
		c.restarts++
		c.events = append(c.events, event{reinit: true})
	}
}

// loseBackendLocked detaches the current backend and enters Restarting.
// Pending completions are dropped; their callers time out.
func (c *Communicator) loseBackendLocked(reason string) {
	if n := len(c.pending); n > 0 {
		c.logger.Warnw("dropping unanswered completions", logger.FieldCount, n)
	}
	c.pending = map[uint64]ResponseHandler{}
	if c.conn != nil {
		c.conn.shutdown()
	}
	c.conn = nil
	c.sender = nil
	c.restarted = true
	c.logger.Warnw("backend lost", "reason", reason)
	c.setStateLocked(StateRestarting)
}

// restart relaunches with exponential backoff until connected, stopped, or
// out of attempts.
func (c *Communicator) restart() {
	for {
		c.mu.Lock()
		if c.state != StateRestarting {
			c.unlock()
			return
		}
		c.attempts++
		attempt := c.attempts
		c.unlock()

		delay := c.backoff(attempt)
		c.logger.Infow("restarting backend", logger.FieldAttempt, attempt, logger.FieldBackoff, delay.String())

		if err := c.limiter.Wait(c.runCtx); err != nil {
			return
		}
		select {
		case <-time.After(delay):
		case <-c.runCtx.Done():
			return
		}

		err := c.connect(c.runCtx)
		if err == nil {
			return
		}

		c.logger.Warnw("backend restart failed", logger.FieldAttempt, attempt, logger.FieldError, err)
		if errors.Is(err, errors.ErrProtocolMismatch) || attempt >= c.cfg.MaxRestartAttempts {
			c.mu.Lock()
			if !c.state.Terminal() {
				c.logger.Errorw("giving up on backend", logger.FieldAttempt, attempt, logger.FieldError, err)
				c.queued = nil
				c.setStateLocked(StateFailed)
			}
			c.unlock()
			return
		}
	}
}

func (c *Communicator) backoff(attempt int) time.Duration {
	delay := c.cfg.InitialBackoff()
	limit := c.cfg.MaxBackoff()
	for i := 1; i < attempt && delay < limit; i++ {
		delay *= 2
	}
	if limit > 0 && delay > limit {
		delay = limit
	}
	return delay
}

// readLoop decodes backend output. The first message must be the handshake;
// it goes to ready, everything after that to dispatch.
// Nothing holds c.mu across transport I/O, so dispatch never stalls the
// decoder. Response handlers run on this goroutine and must not block.
func (c *Communicator) readLoop(conn *connection, ready chan<- ipc.ReadyCommand) {
	stdout := conn.proc.Stdout()
	defer func() {
		if closer, ok := stdout.(io.Closer); ok {
			_ = closer.Close()
		}
	}()
	dec := ipc.NewDecoder(stdout)

	msg, err := dec.Decode()
	hello, ok := msg.(ipc.ReadyCommand)
	if err != nil || !ok {
		if err == nil {
			c.logger.Warnw("backend did not start with a handshake", logger.FieldCommand, msg.Kind().String())
		}
		close(ready)
		return
	}
	ready <- hello

	for {
		msg, err := dec.Decode()
		if err != nil {
			c.logger.Debugw("backend output closed", logger.FieldError, err)
			return
		}
		c.dispatch(conn, msg)
	}
}

func (c *Communicator) dispatch(conn *connection, msg ipc.Message) {
	c.mu.Lock()
	if c.conn != conn {
		c.unlock()
		return
	}
	c.lastSeen = time.Now()

	var handler ResponseHandler
	switch m := msg.(type) {
	case ipc.AliveCommand:
	case ipc.SessionEndedCommand:
		conn.markEnded()
	case ipc.ReadyCommand:
		c.logger.Warnw("unexpected second handshake", logger.FieldSession, m.SessionID)
	default:
		ticket := ipc.Ticket(msg)
		if ticket == 0 {
			c.logger.Warnw("backend notification", logger.FieldCommand, msg.Kind().String(), "detail", ipc.Describe(msg))
			break
		}
		h, ok := c.pending[ticket]
		if !ok {
			c.logger.Debugw("dropping stale response", logger.FieldTicket, ticket)
			break
		}
		delete(c.pending, ticket)
		handler = h
	}
	c.unlock()

	if handler != nil {
		handler(msg)
	}
}

// watchExit turns an unexpected exit of the current backend into a restart.
func (c *Communicator) watchExit(conn *connection) {
	err := conn.proc.Wait()
	close(conn.exited)

	c.mu.Lock()
	if c.conn != conn || c.state != StateReady {
		c.unlock()
		return
	}
	c.logger.Warnw("backend process exited", logger.FieldPid, conn.proc.Pid(), logger.FieldError, err)
	c.loseBackendLocked("exited")
	c.unlock()

	go c.restart()
}

// watchdog kills a backend that sends nothing, not even AliveCommand, for
// longer than the alive timeout.
func (c *Communicator) watchdog(conn *connection) {
	timeout := c.cfg.AliveTimeout()
	ticker := time.NewTicker(timeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-conn.exited:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.conn != conn || c.state != StateReady {
			c.unlock()
			return
		}
		silent := time.Since(c.lastSeen)
		if silent < timeout {
			c.unlock()
			continue
		}
		c.logger.Warnw("backend hung", "silent", silent.String(), logger.FieldPid, conn.proc.Pid())
		c.loseBackendLocked("hung")
		c.unlock()

		_ = conn.proc.Kill()
		go c.restart()
		return
	}
}
