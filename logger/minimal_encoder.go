package logger

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorDim    = "\x1b[2m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorCyan   = "\x1b[36m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder is a compact console encoder:
//
//	13:04:35.120  WARN  communicator  backend lost  reason=exited session=9f2c
//
// Every field is printed as key=value; fields are never dropped. Fields added
// through With are collected in the embedded map encoder and printed first,
// sorted by key.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
	color bool
}

func newMinimalEncoder(color bool) *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder(), color: color}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone, color: enc.color}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := bufferPool.Get()

	enc.paint(final, colorDim, ent.Time.Format("15:04:05.000"))

	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		enc.paint(final, levelColor(ent.Level), ent.Level.CapitalString())
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		enc.paint(final, colorCyan, ent.LoggerName)
	}

	final.AppendString("  ")
	final.AppendString(ent.Message)

	var parts []string
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, enc.Fields[k]))
	}
	parts = append(parts, formatFields(fields)...)
	if len(parts) > 0 {
		final.AppendString("  ")
		final.AppendString(strings.Join(parts, " "))
	}

	final.AppendString("\n")
	return final, nil
}

func (enc *minimalEncoder) paint(buf *buffer.Buffer, color, text string) {
	if !enc.color || color == "" {
		buf.AppendString(text)
		return
	}
	buf.AppendString(color)
	buf.AppendString(text)
	buf.AppendString(colorReset)
}

func levelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorDim
	case zapcore.WarnLevel:
		return colorBold + colorYellow
	case zapcore.InfoLevel:
		return ""
	default:
		return colorBold + colorRed
	}
}

// formatFields renders fields as key=value pairs in the order given. Keys
// produced by namespaces or inline objects follow, sorted.
func formatFields(fields []zapcore.Field) []string {
	if len(fields) == 0 {
		return nil
	}

	m := zapcore.NewMapObjectEncoder()
	var order []string
	for _, f := range fields {
		if f.Type == zapcore.SkipType {
			continue
		}
		if !slices.Contains(order, f.Key) {
			order = append(order, f.Key)
		}
		f.AddTo(m)
	}
	var extra []string
	for key := range m.Fields {
		if !slices.Contains(order, key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	parts := make([]string, 0, len(order))
	for _, key := range order {
		if value, ok := m.Fields[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%v", key, value))
		}
	}
	return parts
}
