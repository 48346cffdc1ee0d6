package ipc

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/teranos/clangcomplete/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// MaxFrameSize bounds a single frame body.
const MaxFrameSize = 16 << 20

const frameHeaderSize = 4

// ErrFrameTooLarge is returned for frames above MaxFrameSize.
var ErrFrameTooLarge = errors.New("ipc frame exceeds maximum size")

// Envelope is the self-describing body of a frame.
type Envelope struct {
	Kind    MessageKind        `msgpack:"k"`
	Payload msgpack.RawMessage `msgpack:"p"`
}

// Marshal encodes msg into a frame body.
func Marshal(msg Message) ([]byte, error) {
	payload, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s", msg.Kind())
	}
	body, err := msgpack.Marshal(Envelope{Kind: msg.Kind(), Payload: payload})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode envelope for %s", msg.Kind())
	}
	return body, nil
}

// Unmarshal decodes a frame body. The returned message is a value, not a pointer.
func Unmarshal(body []byte) (Message, error) {
	var env Envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "failed to decode envelope")
	}

	msg := newMessage(env.Kind)
	if msg == nil {
		return nil, errors.Newf("unknown message kind %d", uint8(env.Kind))
	}
	if len(env.Payload) > 0 {
		if err := msgpack.Unmarshal(env.Payload, msg); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", env.Kind)
		}
	}
	return deref(msg), nil
}

// Encoder writes length-prefixed frames. It is not safe for concurrent use.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes msg as one frame.
func (e *Encoder) Encode(msg Message) error {
	body, err := Marshal(msg)
	if err != nil {
		return err
	}
	if len(body) > MaxFrameSize {
		return errors.Wrapf(ErrFrameTooLarge, "%s is %d bytes", msg.Kind(), len(body))
	}

	frame := make([]byte, frameHeaderSize+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[frameHeaderSize:], body)

	if _, err := e.w.Write(frame); err != nil {
		return errors.Wrapf(err, "failed to write %s", msg.Kind())
	}
	return nil
}

// Decoder reads length-prefixed frames. It is not safe for concurrent use.
type Decoder struct {
	r      *bufio.Reader
	header [frameHeaderSize]byte
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads the next message. A stream closed between frames returns io.EOF.
func (d *Decoder) Decode() (Message, error) {
	if _, err := io.ReadFull(d.r, d.header[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "failed to read frame header")
	}

	size := binary.BigEndian.Uint32(d.header[:])
	if size > MaxFrameSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "incoming frame is %d bytes", size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return nil, errors.Wrapf(err, "failed to read %d byte frame", size)
	}
	return Unmarshal(body)
}
