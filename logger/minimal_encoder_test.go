package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encode(t *testing.T, enc zapcore.Encoder, ent zapcore.Entry, fields ...zapcore.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(ent, fields)
	require.NoError(t, err)
	defer buf.Free()
	return buf.String()
}

// Every field handed to the encoder must reach the output.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 120e6, time.UTC),
		LoggerName: "communicator",
		Message:    "backend ready",
	}

	tests := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String(FieldSession, "9f2c"), "session=9f2c"},
		{zap.Int(FieldPid, 4242), "pid=4242"},
		{zap.Uint64(FieldTicket, 7), "ticket=7"},
		{zap.Bool("replayed", true), "replayed=true"},
		{zap.Float64("cpu", 0.5), "cpu=0.5"},
		{zap.Strings("ids", []string{"a", "b"}), "ids=[a b]"},
		{zap.Duration(FieldBackoff, 200*time.Millisecond), "backoff=200ms"},
		{zap.String("field.with.dots", "x"), "field.with.dots=x"},
		{zap.Error(errors.New("pipe closed")), "error=pipe closed"},
		{zap.Error(nil), ""},
	}

	var fields []zapcore.Field
	for _, tt := range tests {
		fields = append(fields, tt.field)
	}
	out := encode(t, newMinimalEncoder(false), entry, fields...)

	assert.True(t, strings.HasPrefix(out, "13:04:35.120  communicator  backend ready  "), out)
	assert.True(t, strings.HasSuffix(out, "\n"))
	for _, tt := range tests {
		if tt.mustFind != "" {
			assert.Contains(t, out, tt.mustFind)
		}
	}
}

func TestMinimalEncoderLevels(t *testing.T) {
	enc := newMinimalEncoder(false)
	at := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	info := encode(t, enc, zapcore.Entry{Level: zapcore.InfoLevel, Time: at, Message: "m"})
	assert.Equal(t, "08:00:00.000  m\n", info)

	warn := encode(t, enc, zapcore.Entry{Level: zapcore.WarnLevel, Time: at, Message: "m"})
	assert.Equal(t, "08:00:00.000  WARN  m\n", warn)
}

func TestMinimalEncoderColor(t *testing.T) {
	at := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	out := encode(t, newMinimalEncoder(true), zapcore.Entry{Level: zapcore.ErrorLevel, Time: at, Message: "m"})
	assert.Contains(t, out, colorRed+"ERROR"+colorReset)

	plain := encode(t, newMinimalEncoder(false), zapcore.Entry{Level: zapcore.ErrorLevel, Time: at, Message: "m"})
	assert.NotContains(t, plain, "\x1b[")
}

func TestMinimalEncoderWithFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitializeTo(&buf, false, VerbosityInfo))
	defer func() { Logger = nil }()

	l := ComponentLogger("backend").With(FieldSession, "s1", FieldPid, 3)
	l.Infow("request served", FieldTicket, 5)
	Cleanup()

	out := buf.String()
	assert.Contains(t, out, "backend  request served  pid=3 session=s1 ticket=5")
}
