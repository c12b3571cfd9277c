//go:build !tinygo

// Package uartlink opens a serial link to a microcontroller that forwards
// raw ADC samples from its own optical front end, for hosts that have no
// ADC of their own wired to the receiver.
package uartlink

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/tarm/serial"
)

// ErrNoDevice is returned by Open when dev is empty and no platform
// default device exists to fall back to.
var ErrNoDevice = errors.New("uartlink: no device specified")

// Open opens dev at baud and wraps it in a Link. If dev is empty, the
// platform's usual USB-serial device names are tried in order.
func Open(dev string, baud int) (*Link, error) {
	var devices []string
	if dev != "" {
		devices = append(devices, dev)
	} else {
		switch runtime.GOOS {
		case "windows":
			devices = append(devices, "COM3")
		case "linux":
			devices = append(devices, "/dev/ttyUSB0", "/dev/ttyACM0")
		}
	}
	if len(devices) == 0 {
		return nil, ErrNoDevice
	}

	var firstErr error
	for _, d := range devices {
		port, err := serial.OpenPort(&serial.Config{Name: d, Baud: baud})
		if err == nil {
			return &Link{port: port, r: bufio.NewReader(port)}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// Link reads a stream of big-endian uint16 ADC samples from a serial port,
// one every two bytes, with no framing of its own: the microcontroller on
// the other end is expected to push samples continuously at its own fixed
// sample rate.
type Link struct {
	port io.ReadWriteCloser
	r    *bufio.Reader
}

// ReadSample blocks until one 16-bit sample has arrived.
func (l *Link) ReadSample() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(l.r, buf[:]); err != nil {
		return 0, fmt.Errorf("uartlink: %w", err)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// Close releases the underlying serial port.
func (l *Link) Close() error {
	return l.port.Close()
}
