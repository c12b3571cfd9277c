// Package vlcfg decodes a configuration payload transmitted over a visible
// light link into a caller-supplied set of typed fields. A Receiver is
// driven one ADC sample at a time and composes clock and data recovery
// (cdr), 4B/5B line coding (pcs) and CBOR frame decoding (decoder) into a
// single tick entry point.
package vlcfg

import (
	"github.com/shapoco/vlcfg/cdr"
	"github.com/shapoco/vlcfg/decoder"
	"github.com/shapoco/vlcfg/descriptor"
	"github.com/shapoco/vlcfg/pcs"
)

// Receiver composes the full receive pipeline for one optical channel.
type Receiver struct {
	cdr *cdr.CDR
	pcs *pcs.PCS
	dec *decoder.Decoder
}

// New returns a Receiver whose frame buffer holds up to bufCapacity bytes
// of raw CBOR payload (including the trailing CRC).
func New(bufCapacity int) *Receiver {
	return &Receiver{
		cdr: cdr.New(),
		pcs: pcs.New(),
		dec: decoder.New(bufCapacity),
	}
}

// Init resets the whole receive pipeline and arms it for a new round of
// frames, writing decoded values into fields. Clock recovery and
// line-code alignment are reset along with the decoder, so the receiver
// re-acquires lock from scratch; it does not clear the contents of
// fields' buffers from any prior frame.
func (r *Receiver) Init(fields descriptor.Table) error {
	if err := r.dec.Init(fields); err != nil {
		return err
	}
	r.cdr.Reset()
	r.pcs.Reset()
	return nil
}

// Tick advances the receiver by one ADC sample and returns the decoder's
// resulting state. A non-nil error accompanies a transition into
// decoder.Error and describes why the in-flight frame was discarded; the
// caller should call Init again to arm the next frame.
func (r *Receiver) Tick(sample uint16) (decoder.State, error) {
	cdrOut := r.cdr.Update(sample)
	pcsOut := r.pcs.Update(cdrOut)
	return r.dec.Update(pcsOut)
}

// SignalDetected reports whether clock and data recovery currently
// considers the channel illuminated and bit-locked.
func (r *Receiver) SignalDetected() bool { return r.cdr.SignalDetected() }

// LineState reports the current 4B/5B symbol-alignment state.
func (r *Receiver) LineState() pcs.State { return r.pcs.State() }

// State reports the current frame lifecycle state.
func (r *Receiver) State() decoder.State { return r.dec.State() }
