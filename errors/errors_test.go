package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrTimeout, "completion for %s", "main.cpp")

	assert.True(t, Is(err, ErrTimeout))
	assert.False(t, Is(err, ErrInvalidResult))
	assert.Contains(t, err.Error(), "completion for main.cpp")
	assert.Contains(t, err.Error(), "operation timed out")
}

func TestIsNoCompletions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", ErrTimeout, true},
		{"wrapped timeout", Wrap(ErrTimeout, "waiting"), true},
		{"invalid result", ErrInvalidResult, true},
		{"wrapped invalid result", Wrapf(ErrInvalidResult, "ticket %d", 7), true},
		{"backend lost", ErrBackendLost, false},
		{"unrelated", New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNoCompletions(tt.err))
		})
	}
}

func TestIsBackendError(t *testing.T) {
	assert.True(t, IsBackendError(Wrap(ErrBackendLost, "exit status 1")))
	assert.True(t, IsBackendError(ErrBackendUnavailable))
	assert.True(t, IsBackendError(Wrap(ErrProtocolMismatch, "2.0.0")))
	assert.False(t, IsBackendError(ErrTimeout))
	assert.False(t, IsBackendError(nil))
}

func TestNewInvalidRequestError(t *testing.T) {
	err := NewInvalidRequestError("line %d out of range", 42)

	require.Error(t, err)
	assert.True(t, Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), "line 42 out of range")
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("translation unit %s", "foo.cpp")

	assert.True(t, Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "foo.cpp")
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrProtocolMismatch, "rebuild the backend binary")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "rebuild the backend binary", hints[0])
	assert.True(t, Is(err, ErrProtocolMismatch))
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithStack(nil))
	assert.Nil(t, WithHint(nil, "hint"))
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func ExampleWrap() {
	err := Wrap(ErrBackendLost, "failed to deliver completion")
	fmt.Println(err)
	// Output: failed to deliver completion: backend process lost
}
