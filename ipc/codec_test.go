package ipc

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/clangcomplete/chunk"
	"github.com/teranos/clangcomplete/errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap/zaptest"
)

func sampleMessages() []Message {
	return []Message{
		EndCommand{},
		RegisterTranslationUnitForCodeCompletionCommand{FileContainers: []FileContainer{
			NewFileContainer("/src/main.cpp", "/src/app.pro"),
			NewUnsavedFileContainer("/src/header.h", "", "int someGlobal;\n", 3),
		}},
		UnregisterTranslationUnitsForCodeCompletionCommand{FilePaths: []string{"/src/main.cpp"}},
		RegisterProjectPartsForCodeCompletionCommand{ProjectContainers: []ProjectPartContainer{
			{ProjectPartID: "/src/app.pro", Defines: []string{"PROJECT_CONFIGURATION_1"}, IncludePaths: []string{"/src/include"}, LanguageVersion: "c++17"},
		}},
		UnregisterProjectPartsForCodeCompletionCommand{ProjectPartIDs: []string{"/src/app.pro"}},
		CompleteCodeCommand{FilePath: "/src/main.cpp", ProjectPartID: "/src/app.pro", Line: 12, Column: 5, TicketNumber: 7},
		ReadyCommand{ProtocolVersion: "1.1.0", SessionID: "abc", Pid: 4242},
		AliveCommand{},
		CodeCompletedCommand{TicketNumber: 7, CodeCompletions: []CodeCompletion{{
			Text: "f",
			Kind: CompletionFunction,
			Chunks: []chunk.Chunk{
				chunk.New(chunk.ResultType, "void"),
				chunk.New(chunk.TypedText, "f"),
				chunk.NewOptional(chunk.New(chunk.Placeholder, "int x")),
			},
			Priority: 50,
		}}},
		TranslationUnitDoesNotExistCommand{FileContainer: NewFileContainer("/src/gone.cpp", ""), TicketNumber: 8},
		ProjectPartsDoNotExistCommand{ProjectPartIDs: []string{"/src/old.pro"}, TicketNumber: 9},
		SessionEndedCommand{},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, msg := range sampleMessages() {
		require.NoError(t, enc.Encode(msg))
	}

	dec := NewDecoder(&buf)
	for _, want := range sampleMessages() {
		got, err := dec.Decode()
		require.NoError(t, err)
		assert.True(t, Equal(want, got), "%s did not survive the round trip: %#v", want.Kind(), got)
	}

	_, err := dec.Decode()
	assert.Equal(t, io.EOF, err)
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)

	_, err := NewDecoder(bytes.NewReader(header[:])).Decode()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrameTooLarge))
}

func TestDecodeTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(CompleteCodeCommand{FilePath: "/a.cpp", Line: 1, Column: 1}))
	truncated := buf.Bytes()[:buf.Len()-2]

	_, err := NewDecoder(bytes.NewReader(truncated)).Decode()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestUnmarshalUnknownKind(t *testing.T) {
	body, err := Marshal(EndCommand{})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, msgpack.Unmarshal(body, &env))
	env.Kind = 200
	body, err = msgpack.Marshal(env)
	require.NoError(t, err)

	_, err = Unmarshal(body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown message kind 200")
}

func TestStreamSenderSerializesWrites(t *testing.T) {
	var buf safeBuffer
	sender := NewStreamSender(&buf, zaptest.NewLogger(t).Sugar())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, sender.CompleteCode(CompleteCodeCommand{FilePath: "/a.cpp", TicketNumber: uint64(i + 1)}))
		}(i)
	}
	wg.Wait()

	dec := NewDecoder(bytes.NewReader(buf.Bytes()))
	seen := make(map[uint64]bool)
	for i := 0; i < 20; i++ {
		msg, err := dec.Decode()
		require.NoError(t, err)
		seen[msg.(CompleteCodeCommand).TicketNumber] = true
	}
	assert.Len(t, seen, 20)
}

func TestTicket(t *testing.T) {
	assert.Equal(t, uint64(7), Ticket(CodeCompletedCommand{TicketNumber: 7}))
	assert.Equal(t, uint64(8), Ticket(&TranslationUnitDoesNotExistCommand{TicketNumber: 8}))
	assert.Equal(t, uint64(0), Ticket(AliveCommand{}))
}

func TestMessageKindClassification(t *testing.T) {
	for _, msg := range sampleMessages() {
		k := msg.Kind()
		assert.NotEqual(t, k.IsCommand(), k.IsResponse(), "%s", k)
	}
	assert.Equal(t, "MessageKind(99)", MessageKind(99).String())
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
