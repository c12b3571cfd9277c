// Package txsim is a test-only transmitter simulator: it encodes a map of
// values to CBOR, appends a CRC-32, 4B/5B-encodes the frame between SOF and
// EOF delimiters, and synthesizes a two-level ADC sample stream from the
// resulting bit sequence, for exercising a Receiver end to end without real
// hardware.
package txsim

import (
	"hash/crc32"

	"github.com/fxamacker/cbor/v2"
)

// nibbleCode is the inverse of the data entries of pcs's decode table: it
// maps a 4-bit data nibble to its 5-bit line code. The control symbols
// SOF, EOF, SYNC and CTRL are the separate constants below.
var nibbleCode = [16]uint8{
	0b00101, 0b00110, 0b01001, 0b01011,
	0b01100, 0b01101, 0b01110, 0b10010,
	0b10011, 0b10100, 0b10101, 0b10110,
	0b11000, 0b11001, 0b11010, 0b11100,
}

const (
	codeSOF  = 0b00011
	codeEOF  = 0b00111
	codeSync = 0b10001
	codeCtrl = 0b01010
)

// EncodeCBOR marshals v with the same deterministic, definite-length CBOR
// encoding a real transmitter would use, then appends its CRC-32 (IEEE,
// big-endian).
func EncodeCBOR(v any) ([]byte, error) {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	payload, err := mode.Marshal(v)
	if err != nil {
		return nil, err
	}
	crc := crc32.ChecksumIEEE(payload)
	out := append(payload, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return out, nil
}

// EncodeLine 4B/5B-encodes payload as a full line-level symbol sequence:
// two SYNC symbols, SOF, one symbol pair per payload byte, then EOF. It
// returns the sequence as a slice of bits, most significant bit of each
// symbol first.
func EncodeLine(payload []byte) []bool {
	var bits []bool
	emit := func(code uint8) {
		for i := 4; i >= 0; i-- {
			bits = append(bits, code&(1<<i) != 0)
		}
	}
	emitCtrl := func(code uint8) {
		emit(codeCtrl)
		emit(code)
	}

	emitCtrl(codeSync)
	emitCtrl(codeSync)
	emitCtrl(codeSOF)
	for _, b := range payload {
		emit(nibbleCode[b>>4])
		emit(nibbleCode[b&0xf])
	}
	emitCtrl(codeEOF)
	return bits
}

// Samples synthesizes one ADC sample stream for bits, sampling at
// samplesPerBit ticks per bit with the given low/high amplitude levels.
// The returned stream starts with preambleTicks samples that alternate
// between the low and high level once per bit period, starting low, so a
// receiver's amplitude detector and phase lock have time to settle before
// the first real bit arrives.
func Samples(bits []bool, samplesPerBit int, low, high uint16, preambleTicks int) []uint16 {
	out := make([]uint16, 0, preambleTicks+len(bits)*samplesPerBit)
	for i := 0; i < preambleTicks; i++ {
		if (i/samplesPerBit)%2 == 0 {
			out = append(out, low)
		} else {
			out = append(out, high)
		}
	}
	for _, bit := range bits {
		level := low
		if bit {
			level = high
		}
		for i := 0; i < samplesPerBit; i++ {
			out = append(out, level)
		}
	}
	return out
}
