package onewire

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/pixelbus/internal/transport"
)

// ErrNeedsClockedTransport is returned when the wrapped transport cannot
// shift out a fixed-rate bit stream.
var ErrNeedsClockedTransport = errors.New("onewire: wrapped transport must be clocked")

// Encoder is a one-wire transport built on a clocked one. Every data bit
// written to it becomes a 3 or 4 bit symbol, and each frame is wrapped in
// reset bytes sized from the timing.
type Encoder struct {
	timing     Timing
	out        transport.Transport
	clockHz    uint32
	resetBytes int

	buf     []byte
	acc     uint32
	accBits int
	inTx    bool
}

// NewEncoder wraps out, which must be a clocked transport.
func NewEncoder(out transport.Transport, timing Timing) (*Encoder, error) {
	if !out.Capability().Satisfies(transport.Clocked) {
		return nil, fmt.Errorf("%w: got %s", ErrNeedsClockedTransport, out.Capability())
	}
	e := &Encoder{timing: timing, out: out}
	e.clockHz = e.effectiveClock()
	e.resetBytes = timing.ResetBytes(e.clockHz)
	return e, nil
}

// effectiveClock prefers a rate already configured on the wrapped transport.
func (e *Encoder) effectiveClock() uint32 {
	if cc, ok := e.out.(transport.ClockConfigurable); ok {
		if hz := cc.ClockRateHz(); hz != 0 {
			return hz
		}
	}
	return e.timing.NominalClockHz()
}

func (e *Encoder) Timing() Timing     { return e.timing }
func (e *Encoder) ClockRateHz() uint32 { return e.clockHz }
func (e *Encoder) ResetBytes() int     { return e.resetBytes }

// EncodedLen is the size of one encoded frame carrying n data bytes.
func (e *Encoder) EncodedLen(n int) int {
	bits := n * 8 * e.timing.Pattern.BitsPerDataBit()
	return 2*e.resetBytes + (bits+7)/8
}

// Reserve sizes the encode buffer for frames of n data bytes so updates do
// not allocate.
func (e *Encoder) Reserve(n int) {
	if need := e.EncodedLen(n); cap(e.buf) < need {
		e.buf = make([]byte, 0, need)
	}
}

// Begin pushes the derived clock rate down when the wrapped transport has
// none, then starts it.
func (e *Encoder) Begin() error {
	if cc, ok := e.out.(transport.ClockConfigurable); ok && cc.ClockRateHz() == 0 {
		cc.SetClockRateHz(e.clockHz)
	}
	e.clockHz = e.effectiveClock()
	e.resetBytes = e.timing.ResetBytes(e.clockHz)
	log.Debug().
		Str("timing", e.timing.Name).
		Uint32("clock_hz", e.clockHz).
		Int("reset_bytes", e.resetBytes).
		Int("bits_per_bit", e.timing.Pattern.BitsPerDataBit()).
		Msg("one-wire encoder started")
	return e.out.Begin()
}

func (e *Encoder) BeginTransaction() error {
	e.inTx = true
	e.acc, e.accBits = 0, 0
	e.buf = appendZeros(e.buf[:0], e.resetBytes)
	return nil
}

// TransmitBytes encodes p. Outside a transaction p is sent as a frame on
// its own.
func (e *Encoder) TransmitBytes(p []byte) error {
	if !e.inTx {
		if err := e.BeginTransaction(); err != nil {
			return err
		}
		e.encode(p)
		return e.EndTransaction()
	}
	e.encode(p)
	return nil
}

func (e *Encoder) encode(p []byte) {
	n := uint(e.timing.Pattern.BitsPerDataBit())
	one, zero := e.timing.Pattern.symbols()
	for _, b := range p {
		for bit := 7; bit >= 0; bit-- {
			sym := zero
			if b&(1<<uint(bit)) != 0 {
				sym = one
			}
			e.acc = e.acc<<n | sym
			e.accBits += int(n)
			for e.accBits >= 8 {
				e.accBits -= 8
				e.buf = append(e.buf, byte(e.acc>>uint(e.accBits)))
			}
			e.acc &= 1<<uint(e.accBits) - 1
		}
	}
}

// EndTransaction pads the last partial byte, appends the trailing reset and
// sends the frame in one transaction on the wrapped transport.
func (e *Encoder) EndTransaction() error {
	e.inTx = false
	if e.accBits > 0 {
		e.buf = append(e.buf, byte(e.acc<<uint(8-e.accBits)))
		e.acc, e.accBits = 0, 0
	}
	e.buf = appendZeros(e.buf, e.resetBytes)

	if err := e.out.BeginTransaction(); err != nil {
		return err
	}
	if err := e.out.TransmitBytes(e.buf); err != nil {
		return err
	}
	return e.out.EndTransaction()
}

func (e *Encoder) IsReadyToUpdate() bool { return e.out.IsReadyToUpdate() }

func (e *Encoder) Capability() transport.Capability { return transport.OneWire }

func appendZeros(b []byte, n int) []byte {
	for i := 0; i < n; i++ {
		b = append(b, 0)
	}
	return b
}
