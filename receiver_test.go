package vlcfg

import (
	"testing"

	"github.com/shapoco/vlcfg/cdr"
	"github.com/shapoco/vlcfg/decoder"
	"github.com/shapoco/vlcfg/descriptor"
	"github.com/shapoco/vlcfg/internal/txsim"
)

func TestReceiverEndToEnd(t *testing.T) {
	payload, err := txsim.EncodeCBOR(map[string]any{
		"brightness": uint64(200),
		"label":      "demo",
	})
	if err != nil {
		t.Fatal(err)
	}
	bits := txsim.EncodeLine(payload)
	samples := txsim.Samples(bits, cdr.SamplesPerBit, 500, 3500, cdr.AvePeriod*6)

	var brightnessBuf [1]byte
	var labelBuf [16]byte
	fields := descriptor.Table{
		{Key: "brightness", Buffer: brightnessBuf[:], Type: descriptor.Uint},
		{Key: "label", Buffer: labelBuf[:], Type: descriptor.TextString},
	}

	r := New(256)
	if err := r.Init(fields); err != nil {
		t.Fatal(err)
	}

	var completed bool
	for _, s := range samples {
		state, tickErr := r.Tick(s)
		switch state {
		case decoder.Completed:
			completed = true
		case decoder.Error:
			t.Fatalf("decoder entered ERROR: %v", tickErr)
		}
		if completed {
			break
		}
	}

	if !completed {
		t.Fatal("frame never completed")
	}
	if !r.SignalDetected() {
		t.Fatal("signal not detected by end of frame")
	}
	if brightnessBuf[0] != 200 {
		t.Fatalf("brightness = %d, want 200", brightnessBuf[0])
	}
	if got := string(labelBuf[:4]); got != "demo" {
		t.Fatalf("label = %q, want %q", got, "demo")
	}
}
