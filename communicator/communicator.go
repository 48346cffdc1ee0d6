// Package communicator is the client side of the completion protocol. It owns
// the backend process, keeps the authoritative registration state, replays it
// after the backend is lost, and routes completion answers back to callers by
// ticket number.
package communicator

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/teranos/clangcomplete/config"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/ipc"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/version"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Verify Communicator implements ipc.Sender
var _ ipc.Sender = (*Communicator)(nil)

// ResponseHandler receives the backend answer to one completion request:
// CodeCompletedCommand, TranslationUnitDoesNotExistCommand or
// ProjectPartsDoNotExistCommand.
type ResponseHandler func(ipc.Message)

type queuedCompletion struct {
	cmd     ipc.CompleteCodeCommand
	handler ResponseHandler
}

// connection is one launched backend. A connection that is no longer
// c.conn is stale and everything it reports is ignored.
type connection struct {
	proc    Process
	out     *outbox
	started time.Time
	ended   chan struct{}
	endOnce sync.Once
	exited  chan struct{}
}

func (cn *connection) markEnded() {
	cn.endOnce.Do(func() { close(cn.ended) })
}

// shutdown stops writing to the backend. Unsent commands are dropped.
func (cn *connection) shutdown() {
	if cn.out != nil {
		cn.out.close()
	}
}

// Communicator sends commands to the backend and supervises it.
type Communicator struct {
	cfg        config.BackendConfig
	launcher   Launcher
	logger     *zap.SugaredLogger
	constraint *semver.Constraints
	limiter    *rate.Limiter

	runCtx    context.Context
	cancelRun context.CancelFunc

	mu          sync.Mutex
	state       State
	fixedSender ipc.Sender
	sender      ipc.Sender
	conn        *connection
	session     ipc.ReadyCommand
	reg         *registry
	queued      []queuedCompletion
	pending     map[uint64]ResponseHandler
	nextTicket  uint64
	lastSeen    time.Time
	restarted   bool
	restarts    int
	attempts    int
	events      []event

	reinitObservers []func()
	stateObservers  []func(State)
}

type event struct {
	state  State
	reinit bool
}

// Option configures a Communicator.
type Option func(*Communicator)

// WithSender replaces the backend transport. No process is launched; every
// command goes to s. Used with ipctest.SenderSpy.
func WithSender(s ipc.Sender) Option {
	return func(c *Communicator) { c.fixedSender = s }
}

// WithLogger sets the communicator logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Communicator) { c.logger = l }
}

// New creates a communicator in the Disconnected state. launcher may be nil
// when WithSender is given.
func New(cfg config.BackendConfig, launcher Launcher, opts ...Option) (*Communicator, error) {
	c := &Communicator{
		cfg:        cfg,
		launcher:   launcher,
		logger:     zap.NewNop().Sugar(),
		reg:        newRegistry(),
		pending:    map[uint64]ResponseHandler{},
		nextTicket: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.launcher == nil && c.fixedSender == nil {
		return nil, errors.New("communicator needs a launcher or a sender")
	}
	if c.fixedSender != nil {
		c.launcher = nil
	}

	constraint := cfg.ProtocolConstraint
	if constraint == "" {
		constraint = version.DefaultProtocolConstraint
	}
	parsed, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid protocol constraint %q", constraint)
	}
	c.constraint = parsed

	limit := rate.Inf
	if cfg.RestartsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RestartsPerMinute) / 60.0)
	}
	burst := cfg.RestartBurst
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(limit, burst)

	c.runCtx, c.cancelRun = context.WithCancel(context.Background())
	return c, nil
}

// unlock releases c.mu and then runs the observers for the transitions made
// while it was held.
func (c *Communicator) unlock() {
	events := c.events
	c.events = nil
	var stateObs []func(State)
	var reinitObs []func()
	if len(events) > 0 {
		stateObs = slices.Clone(c.stateObservers)
		reinitObs = slices.Clone(c.reinitObservers)
	}
	c.mu.Unlock()

	for _, e := range events {
		if e.reinit {
			for _, fn := range reinitObs {
				fn()
			}
			continue
		}
		for _, fn := range stateObs {
			fn(e.state)
		}
	}
}

func (c *Communicator) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.logger.Infow("backend state changed", logger.FieldState, s.String(), "previous", c.state.String())
	c.state = s
	c.events = append(c.events, event{state: s})
}

// State returns the current connection state.
func (c *Communicator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the handshake of the current backend.
func (c *Communicator) Session() ipc.ReadyCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// OnBackendReinitialized registers fn to run once per completed replay after
// a restart, after the last replay command was sent.
func (c *Communicator) OnBackendReinitialized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reinitObservers = append(c.reinitObservers, fn)
}

// OnStateChange registers fn to run on every state transition.
func (c *Communicator) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateObservers = append(c.stateObservers, fn)
}

// Start launches the backend and sends the initial registration replay. It
// returns once the backend is Ready.
func (c *Communicator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.unlock()
		return errors.Newf("communicator already started (state %s)", state)
	}
	c.setStateLocked(StateConnecting)
	c.unlock()

	if err := c.connect(ctx); err != nil {
		c.mu.Lock()
		if !c.state.Terminal() {
			c.setStateLocked(StateFailed)
		}
		c.unlock()
		return errors.Wrap(err, "failed to start backend")
	}
	return nil
}

// End sends EndCommand and waits for the backend to acknowledge or exit.
// The communicator is Stopped afterwards.
func (c *Communicator) End() error {
	c.mu.Lock()
	if c.state == StateStopped {
		c.unlock()
		return nil
	}
	wasReady := c.state == StateReady
	sender, conn := c.sender, c.conn
	c.setStateLocked(StateStopped)
	c.queued = nil
	c.unlock()

	var err error
	if wasReady && sender != nil {
		err = sender.End()
	}

	if conn != nil {
		timer := time.NewTimer(c.endTimeout())
		select {
		case <-conn.ended:
		case <-conn.exited:
		case <-timer.C:
			c.logger.Warnw("backend did not acknowledge end of session", logger.FieldPid, conn.proc.Pid())
		}
		timer.Stop()
		if killErr := conn.proc.Kill(); killErr != nil && err == nil {
			err = killErr
		}
		conn.shutdown()
	}
	c.cancelRun()
	return err
}

func (c *Communicator) endTimeout() time.Duration {
	if d := c.cfg.ReadyTimeout(); d > 0 {
		return d
	}
	return time.Second
}

// KillBackendProcess terminates the backend and starts the restart cycle.
func (c *Communicator) KillBackendProcess() {
	c.mu.Lock()
	if c.state != StateReady {
		c.logger.Debugw("kill ignored", logger.FieldState, c.state.String())
		c.unlock()
		return
	}
	conn := c.conn
	c.loseBackendLocked("killed")
	c.unlock()

	if conn != nil {
		if err := conn.proc.Kill(); err != nil {
			c.logger.Warnw("failed to kill backend", logger.FieldError, err)
		}
	}
	go c.restart()
}
