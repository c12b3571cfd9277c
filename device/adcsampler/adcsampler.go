// Package adcsampler drives a vlcfg.Receiver from a real analog input pin,
// polling it at a fixed rate and feeding the median of three reads per
// period in as one tick.
package adcsampler

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/host/v3"

	"github.com/shapoco/vlcfg"
)

// Sampler polls a PinADC three times per period and ticks a Receiver with
// the median of the three readings.
type Sampler struct {
	Pin    analog.PinADC
	Period time.Duration
	Recv   *vlcfg.Receiver
}

// Open initializes the host's periph.io drivers. Callers on non-Linux-SBC
// hosts that only want to exercise Sampler against a synthetic PinADC may
// skip calling Open.
func Open() error {
	_, err := host.Init()
	return err
}

// Run polls Pin every Period and ticks Recv until ctx is cancelled, or until
// a read from Pin fails. Decoder errors from individual ticks are not
// fatal: Run discards them and keeps ticking. Run never calls Recv.Init, so
// once a frame completes or fails the decoder stays in decoder.Completed or
// decoder.Error, and later frames are not decoded until Recv.Init is
// called. Callers that want to observe per-tick decoder errors should poll
// Recv.State between calls, or drive the pipeline directly instead of
// through Sampler.
func (s *Sampler) Run(ctx context.Context) error {
	if s.Period <= 0 {
		return fmt.Errorf("adcsampler: non-positive period %v", s.Period)
	}

	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			var reads [3]uint16
			for i := range reads {
				sample, err := s.Pin.Read()
				if err != nil {
					return fmt.Errorf("adcsampler: read: %w", err)
				}
				reads[i] = clampSample(sample)
			}
			s.Recv.Tick(median3(reads[0], reads[1], reads[2]))
		}
	}
}

// clampSample converts a periph analog.Sample's raw ADC reading into the
// unsigned 16-bit range the receive pipeline operates on.
func clampSample(sample analog.Sample) uint16 {
	raw := sample.Raw
	switch {
	case raw < 0:
		return 0
	case raw > 0xffff:
		return 0xffff
	default:
		return uint16(raw)
	}
}

// median3 returns the middle of three independent ADC reads taken within
// one tick period, rejecting a single-read spike that would otherwise
// reach the CDR as a spurious sample.
func median3(a, b, c uint16) uint16 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return b
}
