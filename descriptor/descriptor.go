// Package descriptor defines the caller-owned field table the decoder
// writes decoded values into: one Field per expected CBOR map key, each
// naming its key, target buffer, expected type and capacity.
package descriptor

import "errors"

// Type is the expected CBOR value type for a Field.
type Type uint8

const (
	TextString Type = iota
	ByteString
	Uint
	Int
	Bool
)

// Flags records per-frame status for a Field.
type Flags uint8

// Received is set on a Field iff the most recent frame populated it.
const Received Flags = 1 << 0

const (
	// MaxFields is the largest CBOR map entry count a frame may declare.
	MaxFields = 32
	// MaxKeyLen is the longest key, in bytes, a frame may declare.
	MaxKeyLen = 16
)

// Field is a single caller-allocated value slot. Buffer's length is the
// slot's capacity: for TextString it must additionally reserve one byte
// for the terminating zero, so the longest string the decoder will write
// is len(Buffer)-1 bytes. For Uint and Int, len(Buffer) must be 1, 2, 4 or
// 8 and the value is written in host byte order. For Bool, len(Buffer)
// must be 1.
type Field struct {
	Key           string
	Buffer        []byte
	Type          Type
	ReceivedBytes int
	Flags         Flags
}

// Received reports whether the last frame populated this field.
func (f *Field) Received() bool { return f.Flags&Received != 0 }

// Table is a caller-provided, immutable-across-ticks list of fields the
// decoder may populate.
type Table []Field

// ErrTooManyFields is returned by Validate when a table declares more than
// MaxFields entries.
var ErrTooManyFields = errors.New("descriptor: too many fields")

// ErrKeyTooLong is returned by Validate when a field's key exceeds
// MaxKeyLen bytes.
var ErrKeyTooLong = errors.New("descriptor: key too long")

// Validate checks a table against the wire limits before it is handed to
// the decoder.
func (t Table) Validate() error {
	if len(t) > MaxFields {
		return ErrTooManyFields
	}
	for i := range t {
		if len(t[i].Key) > MaxKeyLen {
			return ErrKeyTooLong
		}
	}
	return nil
}

// Reset clears the Received flag and ReceivedBytes on every field, as
// required between frames.
func (t Table) Reset() {
	for i := range t {
		t[i].Flags &^= Received
		t[i].ReceivedBytes = 0
	}
}

// Find returns the index of the field with the given key, or -1.
func (t Table) Find(key string) int {
	for i := range t {
		if t[i].Key == key {
			return i
		}
	}
	return -1
}
