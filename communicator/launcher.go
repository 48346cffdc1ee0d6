package communicator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
	"github.com/teranos/clangcomplete/config"
	"github.com/teranos/clangcomplete/errors"
	"github.com/teranos/clangcomplete/logger"
	"go.uber.org/zap"
)

// Process is one running backend: a command stream in, a response stream out.
type Process interface {
	Stdin() io.WriteCloser
	// Stdout is read until EOF and then closed by its single reader, if it
	// implements io.Closer. Wait must not close it.
	Stdout() io.Reader
	Pid() int
	Kill() error
	// Wait blocks until the backend exits. It is called exactly once.
	Wait() error
}

// Launcher starts backend processes. The process lives until ctx is done,
// Kill is called, or it exits on its own.
type Launcher interface {
	Launch(ctx context.Context) (Process, error)
}

// ExecLauncher runs the backend as a child process.
type ExecLauncher struct {
	command string
	env     map[string]string
	logger  *zap.SugaredLogger
}

// NewExecLauncher launches cfg.Command with cfg.Env added to the environment.
func NewExecLauncher(cfg config.BackendConfig, logger *zap.SugaredLogger) *ExecLauncher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ExecLauncher{command: cfg.Command, env: cfg.Env, logger: logger}
}

func (l *ExecLauncher) Launch(ctx context.Context) (Process, error) {
	args, err := shellquote.Split(l.command)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid backend command %q", l.command)
	}
	if len(args) == 0 {
		return nil, errors.New("backend command is empty")
	}

	binary, err := exec.LookPath(args[0])
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "backend binary %s not found", args[0]),
			"install clangbackend or set backend.command in clangcomplete.toml")
	}

	cmd := exec.CommandContext(ctx, binary, args[1:]...)
	cmd.Env = os.Environ()
	for key, value := range l.env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", strings.ToUpper(key), value))
	}
	cmd.Stderr = &stderrLogger{logger: l.logger, binary: args[0]}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create backend stdin pipe")
	}
	// An os.Pipe instead of StdoutPipe: cmd.Wait closes StdoutPipe readers,
	// and Wait runs concurrently with the reader. The reader owns stdout and
	// closes it after draining.
	stdout, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create backend stdout pipe")
	}
	cmd.Stdout = stdoutW

	err = cmd.Start()
	stdoutW.Close()
	if err != nil {
		stdout.Close()
		return nil, errors.Wrapf(err, "failed to start backend (binary=%s, args=%v)", binary, args[1:])
	}
	l.logger.Infow("launched backend process", logger.FieldBinary, binary, logger.FieldPid, cmd.Process.Pid)

	return &execProcess{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader     { return p.stdout }
func (p *execProcess) Pid() int              { return p.cmd.Process.Pid }

func (p *execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrapf(err, "failed to kill backend pid %d", p.cmd.Process.Pid)
	}
	return nil
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

// stderrLogger forwards backend stderr to the logger one line at a time.
type stderrLogger struct {
	logger *zap.SugaredLogger
	binary string

	mu  sync.Mutex
	buf strings.Builder
}

func (l *stderrLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.Write(p)
	for {
		line, rest, found := strings.Cut(l.buf.String(), "\n")
		if !found {
			break
		}
		l.buf.Reset()
		l.buf.WriteString(rest)

		if line = strings.TrimSpace(line); line != "" {
			l.logger.Debugw("backend output", logger.FieldBinary, l.binary, "message", line)
		}
	}
	return len(p), nil
}
