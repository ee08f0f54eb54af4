package protocol

import (
	"fmt"
	"math"
)

// Encoder appends wire values to an internal buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with a small initial capacity.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Reset empties the encoder, keeping the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// Bytes returns the encoded bytes. The slice is valid until the next
// Reset or write.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// WriteUint8 appends a single byte.
func (e *Encoder) WriteUint8(b byte) {
	e.buf = append(e.buf, b)
}

// WriteUvarint appends an unsigned varint, 7 bits per byte with the high
// bit marking continuation.
func (e *Encoder) WriteUvarint(v uint64) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// WriteSvarint appends a signed varint using ZigZag encoding.
func (e *Encoder) WriteSvarint(v int64) {
	e.WriteUvarint(uint64((v << 1) ^ (v >> 63)))
}

// WriteInt appends a non-negative int as an unsigned varint. Negative
// values are clamped to zero.
func (e *Encoder) WriteInt(v int) {
	if v < 0 {
		v = 0
	}
	e.WriteUvarint(uint64(v))
}

// WriteString appends a varint length followed by the string bytes.
func (e *Encoder) WriteString(s string) {
	e.WriteUvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteStrings appends a count followed by each string.
func (e *Encoder) WriteStrings(ss []string) {
	e.WriteUvarint(uint64(len(ss)))
	for _, s := range ss {
		e.WriteString(s)
	}
}

// WriteBool appends 0x00 or 0x01.
func (e *Encoder) WriteBool(b bool) {
	if b {
		e.buf = append(e.buf, 0x01)
	} else {
		e.buf = append(e.buf, 0x00)
	}
}

// WriteUint16 appends a big-endian uint16.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

// WriteUint64 appends a big-endian uint64.
func (e *Encoder) WriteUint64(v uint64) {
	e.buf = append(e.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// WriteFloat64 appends an IEEE 754 float64, big-endian.
func (e *Encoder) WriteFloat64(v float64) {
	e.WriteUint64(math.Float64bits(v))
}

// Value tags for dynamically typed values (DOM properties and event
// fields).
const (
	valueNil    byte = 0x00
	valueString byte = 0x01
	valueBool   byte = 0x02
	valueInt    byte = 0x03
	valueFloat  byte = 0x04
)

// WriteValue appends a tagged scalar. Integers of any width travel as
// signed varints and decode as int; values of other types are sent in
// their fmt spelling.
func (e *Encoder) WriteValue(v any) {
	switch val := v.(type) {
	case nil:
		e.WriteUint8(valueNil)
	case string:
		e.WriteUint8(valueString)
		e.WriteString(val)
	case bool:
		e.WriteUint8(valueBool)
		e.WriteBool(val)
	case int:
		e.WriteUint8(valueInt)
		e.WriteSvarint(int64(val))
	case int32:
		e.WriteUint8(valueInt)
		e.WriteSvarint(int64(val))
	case int64:
		e.WriteUint8(valueInt)
		e.WriteSvarint(val)
	case float32:
		e.WriteUint8(valueFloat)
		e.WriteFloat64(float64(val))
	case float64:
		e.WriteUint8(valueFloat)
		e.WriteFloat64(val)
	default:
		e.WriteUint8(valueString)
		e.WriteString(fmt.Sprint(val))
	}
}
