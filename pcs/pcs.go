// Package pcs implements the 4B/5B physical coding sublayer: it aligns to
// the recovered bit stream, decodes 5-bit line symbols into data nibbles or
// control symbols, and assembles bytes and delimiters for framing.
package pcs

import "github.com/shapoco/vlcfg/cdr"

// SymbolBits is the width, in bits, of one line code symbol.
const SymbolBits = cdr.SymbolBits

// shiftMask keeps the shift register to two symbols (10 bits) wide.
const shiftMask = 1<<(SymbolBits*2) - 1

// symbolMask isolates one 5-bit symbol from the shift register.
const symbolMask = 1<<SymbolBits - 1

// code is a decoded 5-bit line symbol: either a data nibble (0x0-0xF) or one
// of the control symbols below.
type code int8

const (
	codeSOF     code = -1
	codeEOF     code = -2
	codeSync    code = -3
	codeCtrl    code = -4
	codeInvalid code = -5
)

// decodeTable maps every 5-bit line code to its decoded meaning. Codes not
// listed as data or control are codeInvalid.
var decodeTable = [1 << SymbolBits]code{
	0b00000: codeInvalid,
	0b00001: codeInvalid,
	0b00010: codeInvalid,
	0b00011: codeSOF,
	0b00100: codeInvalid,
	0b00101: 0x0,
	0b00110: 0x1,
	0b00111: codeEOF,
	0b01000: codeInvalid,
	0b01001: 0x2,
	0b01010: codeCtrl,
	0b01011: 0x3,
	0b01100: 0x4,
	0b01101: 0x5,
	0b01110: 0x6,
	0b01111: codeInvalid,
	0b10000: codeInvalid,
	0b10001: codeSync,
	0b10010: 0x7,
	0b10011: 0x8,
	0b10100: 0x9,
	0b10101: 0xA,
	0b10110: 0xB,
	0b10111: codeInvalid,
	0b11000: 0xC,
	0b11001: 0xD,
	0b11010: 0xE,
	0b11011: codeInvalid,
	0b11100: 0xF,
	0b11101: codeInvalid,
	0b11110: codeInvalid,
	0b11111: codeInvalid,
}

// State is the PCS's symbol-alignment state.
type State uint8

const (
	LOS State = iota
	RxedSync1
	RxedSync2
	RxedSOF
	RxedByte
	RxedEOF
)

// Symbol is what rides on a successful PCS output: either a data byte
// (0..255) or one of the delimiter sentinels below, distinguishable from
// any data byte because it falls outside the 0..255 range.
type Symbol int32

const (
	SOF Symbol = -1
	EOF Symbol = -2
)

// Output is what PCS hands to the decoder for every tick.
type Output struct {
	State  State
	Rxed   bool
	Symbol Symbol
}

// PCS holds the alignment state for one receive channel.
type PCS struct {
	state    State
	shiftReg uint16
	phase    uint8
}

// New returns an initialized PCS.
func New() *PCS {
	p := &PCS{}
	p.Reset()
	return p
}

// Reset drops symbol lock and clears the shift register.
func (p *PCS) Reset() {
	p.state = LOS
	p.phase = 0
	p.shiftReg = 0
}

// State returns the current alignment state.
func (p *PCS) State() State { return p.state }

// Update runs one tick of symbol decoding over a CDR output.
func (p *PCS) Update(in cdr.Output) Output {
	if !in.SignalDetected {
		p.Reset()
		return Output{State: p.state}
	}
	if !in.Rxed {
		return Output{State: p.state}
	}

	p.shiftReg = (p.shiftReg << 1) & shiftMask
	if in.Bit {
		p.shiftReg |= 1
	}

	hi := decodeTable[(p.shiftReg>>SymbolBits)&symbolMask]
	lo := decodeTable[p.shiftReg&symbolMask]
	var rxedSync, rxedSOF, rxedEOF bool
	if hi == codeCtrl {
		rxedSync = lo == codeSync
		rxedSOF = lo == codeSOF
		rxedEOF = lo == codeEOF
	}

	var out Output
	switch {
	case p.state == LOS:
		if rxedSync {
			p.phase = 0
			p.state = RxedSync1
		}

	case p.phase < SymbolBits*2-1:
		p.phase++

	default:
		p.phase = 0

		switch p.state {
		case RxedSync1:
			if rxedSync {
				p.state = RxedSync2
			} else {
				p.state = LOS
			}

		case RxedSync2:
			switch {
			case rxedSOF:
				out.Rxed = true
				out.Symbol = SOF
				p.state = RxedSOF
			case rxedSync:
				p.state = RxedSync2
			default:
				p.state = LOS
			}

		case RxedSOF, RxedByte:
			switch {
			case rxedEOF:
				out.Rxed = true
				out.Symbol = EOF
				p.state = RxedEOF
			case hi >= 0 && lo >= 0:
				out.Rxed = true
				out.Symbol = Symbol(int32(hi)<<4 | int32(lo))
				p.state = RxedByte
			default:
				p.state = LOS
			}

		case RxedEOF:
			switch {
			case rxedSOF:
				out.Rxed = true
				out.Symbol = SOF
				p.state = RxedSOF
			case rxedSync:
				p.state = RxedSync2
			default:
				p.state = LOS
			}
		}
	}

	out.State = p.state
	return out
}
