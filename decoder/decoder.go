// Package decoder implements the frame lifecycle and CBOR map walk: it
// assembles bytes delimited by SOF/EOF into a buffer, verifies the trailing
// CRC, and decodes a single top-level CBOR map into a caller's descriptor
// table by matching keys.
package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/shapoco/vlcfg/descriptor"
	"github.com/shapoco/vlcfg/pcs"
	"github.com/shapoco/vlcfg/rxbuf"
)

// State is the decoder's frame lifecycle state.
type State uint8

const (
	Idle State = iota
	Receiving
	Completed
	Error
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Receiving:
		return "RECEIVING"
	case Completed:
		return "COMPLETED"
	case Error:
		return "ERROR"
	default:
		return "INVALID"
	}
}

// Key-phase and value-phase errors, on top of the buffer-level errors
// that rxbuf returns and Update passes on, bare or wrapped.
var (
	ErrLOS               = errors.New("decoder: loss of signal")
	ErrExtraBytes        = errors.New("decoder: extra bytes after map")
	ErrTooManyEntries    = errors.New("decoder: too many map entries")
	ErrKeyTooLong        = errors.New("decoder: key too long")
	ErrKeyNotFound       = errors.New("decoder: key not found")
	ErrKeyTypeMismatch   = errors.New("decoder: key type mismatch")
	ErrValueTypeMismatch = errors.New("decoder: value type mismatch")
	ErrValueTooLong      = errors.New("decoder: value too long")
	ErrValueOutOfRange   = errors.New("decoder: value out of range")
	ErrBuffSizeMismatch  = errors.New("decoder: descriptor buffer size mismatch")
	ErrEOFExpected       = errors.New("decoder: expected EOF delimiter")
)

// Decoder holds the frame-assembly buffer and lifecycle state for one
// receive channel.
type Decoder struct {
	buf    *rxbuf.Buffer
	fields descriptor.Table
	state  State
}

// New returns a Decoder with a frame buffer of the given capacity.
func New(capacity int) *Decoder {
	return &Decoder{buf: rxbuf.New(capacity)}
}

// Init resets the decoder to IDLE, clears the frame buffer, and clears the
// Received flag and ReceivedBytes on every field in fields.
func (d *Decoder) Init(fields descriptor.Table) error {
	if err := fields.Validate(); err != nil {
		return err
	}
	fields.Reset()
	d.buf.Reset()
	d.fields = fields
	d.state = Idle
	return nil
}

// State returns the current lifecycle state.
func (d *Decoder) State() State { return d.state }

// Update advances the decoder with one PCS output. It returns the new
// state and, when a frame just failed, the error that caused it. COMPLETED
// and ERROR are terminal: once reached, Update no longer returns an error
// until the next Init.
func (d *Decoder) Update(in pcs.Output) (State, error) {
	switch d.state {
	case Idle:
		if in.Rxed && in.Symbol == pcs.SOF {
			d.buf.Reset()
			d.state = Receiving
		}

	case Receiving:
		if in.State == pcs.LOS {
			d.state = Error
			return d.state, ErrLOS
		}
		if !in.Rxed {
			break
		}
		switch {
		case in.Symbol == pcs.SOF:
			// A second SOF mid-frame without an intervening EOF cannot
			// happen once PCS is synced, but guard against it rather
			// than silently restarting.
			d.state = Error
			return d.state, ErrEOFExpected
		case in.Symbol == pcs.EOF:
			if err := d.complete(); err != nil {
				d.state = Error
				return d.state, err
			}
			d.state = Completed
		case in.Symbol >= 0 && in.Symbol <= 255:
			if err := d.buf.Push(byte(in.Symbol)); err != nil {
				d.state = Error
				return d.state, err
			}
		default:
			d.state = Error
			return d.state, ErrEOFExpected
		}
	}

	return d.state, nil
}

// complete runs at EOF: it verifies the CRC, then walks the CBOR map,
// matching each key against the descriptor table and writing its value.
func (d *Decoder) complete() error {
	if err := d.buf.CheckAndRemoveCRC(); err != nil {
		return err
	}

	major, param, err := d.buf.ReadItemHeader()
	if err != nil {
		return err
	}
	if major != rxbuf.MajorMap {
		return fmt.Errorf("decoder: %w: expected map, got major type %d", rxbuf.ErrUnsupportedType, major)
	}
	if param > descriptor.MaxFields {
		return ErrTooManyEntries
	}

	for i := uint64(0); i < param; i++ {
		idx, err := d.findKey()
		if err != nil {
			return err
		}
		if idx < 0 {
			return ErrKeyNotFound
		}
		if err := d.readValue(&d.fields[idx]); err != nil {
			return err
		}
	}

	if d.buf.Len() != 0 {
		return ErrExtraBytes
	}
	return nil
}

// findKey reads one CBOR text-string key and returns its descriptor index,
// or -1 if no descriptor declares it.
func (d *Decoder) findKey() (int, error) {
	major, param, err := d.buf.ReadItemHeader()
	if err != nil {
		return -1, err
	}
	if major != rxbuf.MajorTextString {
		return -1, ErrKeyTypeMismatch
	}
	if param > descriptor.MaxKeyLen {
		return -1, ErrKeyTooLong
	}
	raw, err := d.buf.PopBytes(int(param))
	if err != nil {
		return -1, err
	}
	return d.fields.Find(string(raw)), nil
}

// readValue reads one CBOR value and writes it into f according to f.Type.
func (d *Decoder) readValue(f *descriptor.Field) error {
	major, param, err := d.buf.ReadItemHeader()
	if err != nil {
		return err
	}

	switch major {
	case rxbuf.MajorTextString, rxbuf.MajorByteString:
		return d.readString(f, major == rxbuf.MajorTextString, param)
	case rxbuf.MajorUint, rxbuf.MajorNegInt:
		return d.readInt(f, major == rxbuf.MajorNegInt, param)
	case rxbuf.MajorSimple:
		return d.readBool(f, param)
	default:
		return fmt.Errorf("decoder: %w: major type %d", rxbuf.ErrUnsupportedType, major)
	}
}

func (d *Decoder) readString(f *descriptor.Field, isText bool, length uint64) error {
	wantType := descriptor.ByteString
	if isText {
		wantType = descriptor.TextString
	}
	if f.Type != wantType {
		return ErrValueTypeMismatch
	}
	n := int(length)
	required := n
	if isText {
		required = n + 1
	}
	if required > len(f.Buffer) {
		return ErrValueTooLong
	}
	data, err := d.buf.PopBytes(n)
	if err != nil {
		return err
	}
	copy(f.Buffer, data)
	if isText {
		f.Buffer[n] = 0
	}
	f.ReceivedBytes = required
	f.Flags |= descriptor.Received
	return nil
}

func (d *Decoder) readInt(f *descriptor.Field, negative bool, param uint64) error {
	var value uint64
	switch f.Type {
	case descriptor.Uint:
		if negative {
			return ErrValueOutOfRange
		}
		value = param
	case descriptor.Int:
		if param&0x8000000000000000 != 0 {
			return ErrValueOutOfRange
		}
		if negative {
			value = ^param
		} else {
			value = param
		}
	default:
		return ErrValueTypeMismatch
	}

	capacity := len(f.Buffer)
	switch capacity {
	case 1, 2, 4, 8:
	default:
		return ErrBuffSizeMismatch
	}
	if minByteWidth(param) > capacity {
		return ErrValueTooLong
	}

	switch capacity {
	case 1:
		f.Buffer[0] = byte(value)
	case 2:
		binary.NativeEndian.PutUint16(f.Buffer, uint16(value))
	case 4:
		binary.NativeEndian.PutUint32(f.Buffer, uint32(value))
	case 8:
		binary.NativeEndian.PutUint64(f.Buffer, value)
	}
	f.ReceivedBytes = capacity
	f.Flags |= descriptor.Received
	return nil
}

func (d *Decoder) readBool(f *descriptor.Field, param uint64) error {
	if f.Type != descriptor.Bool {
		return ErrValueTypeMismatch
	}
	if len(f.Buffer) != 1 {
		return ErrBuffSizeMismatch
	}
	if param == 21 {
		f.Buffer[0] = 1
	} else {
		f.Buffer[0] = 0
	}
	f.ReceivedBytes = 1
	f.Flags |= descriptor.Received
	return nil
}

// minByteWidth returns the smallest of 1, 2, 4, 8 that can hold v.
func minByteWidth(v uint64) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}
