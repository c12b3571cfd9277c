package pcs

import (
	"testing"

	"github.com/shapoco/vlcfg/cdr"
	"github.com/shapoco/vlcfg/internal/txsim"
)

func feedBits(p *PCS, bits []bool) []Output {
	var outs []Output
	for _, b := range bits {
		outs = append(outs, p.Update(cdr.Output{SignalDetected: true, Rxed: true, Bit: b}))
	}
	return outs
}

func TestDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x12, 0x34, 0xab, 0xcd}
	bits := txsim.EncodeLine(payload)

	p := New()
	outs := feedBits(p, bits)

	var got []byte
	sawSOF, sawEOF := false, false
	for _, o := range outs {
		if !o.Rxed {
			continue
		}
		switch {
		case o.Symbol == SOF:
			sawSOF = true
		case o.Symbol == EOF:
			sawEOF = true
		default:
			got = append(got, byte(o.Symbol))
		}
	}
	if !sawSOF {
		t.Fatal("SOF not decoded")
	}
	if !sawEOF {
		t.Fatal("EOF not decoded")
	}
	if len(got) != len(payload) {
		t.Fatalf("decoded %d bytes, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d: got %#x, want %#x", i, got[i], payload[i])
		}
	}
}

func TestLossOfSignalResetsAlignment(t *testing.T) {
	p := New()
	p.Update(cdr.Output{SignalDetected: true, Rxed: true, Bit: true})
	if out := p.Update(cdr.Output{SignalDetected: false}); out.State != LOS {
		t.Fatalf("state after signal loss = %v, want LOS", out.State)
	}
}
