// command monitor is the internal tool for watching a vlcfg receiver live,
// fed by a microcontroller that forwards raw ADC samples over a serial
// link.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shapoco/vlcfg"
	"github.com/shapoco/vlcfg/decoder"
	"github.com/shapoco/vlcfg/descriptor"
	"github.com/shapoco/vlcfg/device/uartlink"
)

var (
	serialDev = flag.String("device", "", "serial device forwarding ADC samples")
	baud      = flag.Int("baud", 921600, "serial baud rate")
	bufSize   = flag.Int("bufsize", 256, "frame payload buffer size, in bytes")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	link, err := uartlink.Open(*serialDev, *baud)
	if err != nil {
		return err
	}
	defer link.Close()

	var idBuf [4]byte
	var labelBuf [32]byte
	fields := descriptor.Table{
		{Key: "id", Buffer: idBuf[:], Type: descriptor.Uint},
		{Key: "label", Buffer: labelBuf[:], Type: descriptor.TextString},
	}

	r := vlcfg.New(*bufSize)
	if err := r.Init(fields); err != nil {
		return err
	}

	log.Println("monitor: waiting for signal...")
	hadSignal := false
	for {
		sample, err := link.ReadSample()
		if err != nil {
			return err
		}

		state, tickErr := r.Tick(sample)

		if sig := r.SignalDetected(); sig != hadSignal {
			hadSignal = sig
			log.Printf("signal detected: %v", sig)
		}

		switch state {
		case decoder.Completed:
			id := binary.NativeEndian.Uint32(idBuf[:])
			label := labelBuf[:bytes.IndexByte(labelBuf[:], 0)]
			log.Printf("frame: id=%d label=%q", id, label)
			if err := r.Init(fields); err != nil {
				return err
			}
		case decoder.Error:
			log.Printf("frame error: %v", tickErr)
			if err := r.Init(fields); err != nil {
				return err
			}
		}
	}
}
