package protocol

import (
	"errors"
	"io"
)

const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 4

	// MaxPayloadSize is the largest payload a single frame carries.
	// Longer messages are split across frames with FlagMore.
	MaxPayloadSize = 65535

	// MaxMessageSize caps a message reassembled from several frames.
	MaxMessageSize = MaxAllocation
)

// FrameType identifies the message a frame carries.
type FrameType uint8

const (
	FrameEvent   FrameType = 0x01 // Client → server event
	FramePatch   FrameType = 0x02 // Server → client patch
	FrameControl FrameType = 0x03 // Ping, pong, close
	FrameError   FrameType = 0x05 // Error report
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameEvent:
		return "Event"
	case FramePatch:
		return "Patch"
	case FrameControl:
		return "Control"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Valid reports whether ft is a known frame type.
func (ft FrameType) Valid() bool {
	switch ft {
	case FrameEvent, FramePatch, FrameControl, FrameError:
		return true
	}
	return false
}

// FrameFlags modify how a frame's payload is read.
type FrameFlags uint8

const (
	FlagMore FrameFlags = 0x01 // Payload continues in the next frame
)

// Has reports whether ff contains flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
	ErrFrameSequence    = errors.New("protocol: continuation frame type mismatch")
)

// Frame is one unit on the wire.
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//	│  Payload (variable length)                                  │
//	└─────────────────────────────────────────────────────────────┘
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// Encode returns the frame including its header.
func (f *Frame) Encode() []byte {
	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	buf[2] = byte(len(f.Payload) >> 8)
	buf[3] = byte(len(f.Payload))
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame decodes exactly one frame from data.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, ErrBufferTooShort
	}
	ft := FrameType(data[0])
	if !ft.Valid() {
		return nil, ErrInvalidFrameType
	}
	length := int(data[2])<<8 | int(data[3])
	switch {
	case len(data) < FrameHeaderSize+length:
		return nil, ErrBufferTooShort
	case len(data) > FrameHeaderSize+length:
		return nil, ErrTrailingBytes
	}
	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:])
	return &Frame{Type: ft, Flags: FrameFlags(data[1]), Payload: payload}, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	ft := FrameType(header[0])
	if !ft.Valid() {
		return nil, ErrInvalidFrameType
	}
	payload := make([]byte, int(header[2])<<8|int(header[3]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return &Frame{Type: ft, Flags: FrameFlags(header[1]), Payload: payload}, nil
}

// WriteFrame writes f to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

// Split cuts a message into frames of at most MaxPayloadSize bytes. Every
// frame but the last carries FlagMore; an empty message is one empty
// frame.
func Split(ft FrameType, message []byte) []*Frame {
	var frames []*Frame
	for len(message) > MaxPayloadSize {
		frames = append(frames, &Frame{Type: ft, Flags: FlagMore, Payload: message[:MaxPayloadSize]})
		message = message[MaxPayloadSize:]
	}
	return append(frames, &Frame{Type: ft, Payload: message})
}

// Assembler joins frames split by Split back into messages.
// The zero value is ready to use.
type Assembler struct {
	typ     FrameType
	pending []byte
	partial bool
}

// Add consumes f. It returns the message type and payload once the final
// frame of a message arrives; ok is false while more frames are due.
func (a *Assembler) Add(f *Frame) (ft FrameType, message []byte, ok bool, err error) {
	if a.partial && f.Type != a.typ {
		a.Reset()
		return 0, nil, false, ErrFrameSequence
	}
	if len(a.pending)+len(f.Payload) > MaxMessageSize {
		a.Reset()
		return 0, nil, false, ErrFrameTooLarge
	}
	if !f.Flags.Has(FlagMore) && !a.partial {
		return f.Type, f.Payload, true, nil
	}
	a.typ, a.partial = f.Type, true
	a.pending = append(a.pending, f.Payload...)
	if f.Flags.Has(FlagMore) {
		return 0, nil, false, nil
	}
	message = a.pending
	a.pending, a.partial = nil, false
	return f.Type, message, true, nil
}

// Reset drops any partially assembled message.
func (a *Assembler) Reset() {
	a.pending, a.partial, a.typ = nil, false, 0
}
