// Package transport defines the byte sink contract protocols write frames to,
// and a few concrete sinks: in-memory, SPI, native NRZ and console preview.
package transport

import (
	"errors"
	"strings"
)

// Capability describes what kind of wire a transport drives.
type Capability uint8

const (
	// AnyTransport is only meaningful as a requirement: the protocol can be
	// carried by any transport.
	AnyTransport Capability = 0
	// Clocked transports drive separate clock and data lines (SPI-like).
	Clocked Capability = 1 << iota
	// OneWire transports produce a self-clocked NRZ data line.
	OneWire
)

func (c Capability) String() string {
	if c == AnyTransport {
		return "any"
	}
	var parts []string
	if c&Clocked != 0 {
		parts = append(parts, "clocked")
	}
	if c&OneWire != 0 {
		parts = append(parts, "one-wire")
	}
	return strings.Join(parts, "|")
}

// Satisfies reports whether a transport offering c can carry a protocol that
// requires req.
func (c Capability) Satisfies(req Capability) bool {
	return req == AnyTransport || c&req != 0
}

// Transport moves protocol bytes to hardware.
//
// A frame is bracketed by BeginTransaction and EndTransaction; bytes passed
// to TransmitBytes in between belong to one contiguous stream. Callers must
// not start a frame until IsReadyToUpdate reports true. TransmitBytes must
// not keep p after it returns, and should not modify it.
type Transport interface {
	Begin() error
	BeginTransaction() error
	TransmitBytes(p []byte) error
	EndTransaction() error
	IsReadyToUpdate() bool
	Capability() Capability
}

// ClockConfigurable is implemented by transports whose bit clock can be set.
// A zero rate means unset.
type ClockConfigurable interface {
	ClockRateHz() uint32
	SetClockRateHz(hz uint32)
}

var (
	ErrNotStarted = errors.New("transport: Begin has not been called")
	ErrClosed     = errors.New("transport: closed")
)

// Settings is the per-transport configuration surface.
type Settings struct {
	ClockHz uint32
	Invert  bool
}

func invertInPlace(p []byte) {
	for i := range p {
		p[i] = ^p[i]
	}
}
