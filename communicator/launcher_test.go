package communicator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/clangcomplete/config"
)

func TestStderrLoggerSplitsLines(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	w := &stderrLogger{logger: zap.New(core).Sugar(), binary: "clangbackend"}

	_, _ = w.Write([]byte("first line\nsecond "))
	_, _ = w.Write([]byte("half\n\n   \n"))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "first line", entries[0].ContextMap()["message"])
		assert.Equal(t, "second half", entries[1].ContextMap()["message"])
	}
}

func TestExecLauncherMissingBinary(t *testing.T) {
	cfg := config.Default().Backend
	cfg.Command = "clangbackend-does-not-exist --log-level debug"

	_, err := NewExecLauncher(cfg, nil).Launch(context.Background())
	assert.Error(t, err)
}

func TestExecLauncherBadQuoting(t *testing.T) {
	cfg := config.Default().Backend
	cfg.Command = `clangbackend "unterminated`

	_, err := NewExecLauncher(cfg, nil).Launch(context.Background())
	assert.Error(t, err)
}
