package communicator

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/teranos/clangcomplete/clangbackend"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/parser"
)

var errKilled = errors.New("backend killed")

// InProcessLauncher runs a clangbackend.Server on in-memory pipes. Every
// launch gets a fresh server, so a kill loses all backend state just like a
// crashed child process would.
type InProcessLauncher struct {
	engine parser.Engine
	opts   []clangbackend.Option

	mu       sync.Mutex
	launches int
}

// NewInProcessLauncher serves completions from engine.
func NewInProcessLauncher(engine parser.Engine, opts ...clangbackend.Option) *InProcessLauncher {
	return &InProcessLauncher{engine: engine, opts: opts}
}

// Launches returns how many backends were started.
func (l *InProcessLauncher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *InProcessLauncher) Launch(ctx context.Context) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.launches++
	l.mu.Unlock()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(ctx)

	p := &pipeProcess{
		stdin:  inW,
		stdout: outR,
		inR:    inR,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	srv := clangbackend.NewServer(l.engine, l.opts...)
	go func() {
		p.err = srv.Serve(ctx, inR, outW)
		outW.Close()
		inR.Close()
		close(p.done)
	}()
	return p, nil
}

type pipeProcess struct {
	stdin  *io.PipeWriter
	stdout *io.PipeReader
	inR    *io.PipeReader
	cancel context.CancelFunc

	done chan struct{}
	err  error
}

func (p *pipeProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *pipeProcess) Stdout() io.Reader     { return p.stdout }
func (p *pipeProcess) Pid() int              { return os.Getpid() }

func (p *pipeProcess) Kill() error {
	p.cancel()
	p.inR.CloseWithError(errKilled)
	p.stdout.CloseWithError(errKilled)
	return nil
}

func (p *pipeProcess) Wait() error {
	<-p.done
	if errors.Is(p.err, context.Canceled) {
		return errKilled
	}
	return p.err
}
