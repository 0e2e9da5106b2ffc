// Package protocol serializes color frames into the wire format of a specific
// LED driver chip and hands the bytes to a transport.
package protocol

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

var (
	// ErrIncompatibleTransport is returned when a protocol is bound to a
	// transport that cannot carry it.
	ErrIncompatibleTransport = errors.New("protocol: incompatible transport")
	ErrNoTransport           = errors.New("protocol: nil transport")
	ErrInvalidSettings       = errors.New("protocol: invalid settings")
)

// Protocol is a chip family encoder bound to one transport.
//
// Update must not be called again until IsReadyToUpdate reports true. The
// protocol does not guard against reentrant use.
type Protocol[T color.Component] interface {
	Initialize() error
	// Update serializes colors into the frame buffer and transmits it.
	// Colors past the configured pixel count are ignored and missing ones
	// are sent as black.
	Update(colors []color.Color[T]) error
	IsReadyToUpdate() bool
	// AlwaysUpdate reports whether the chip needs a frame on every show,
	// dirty or not.
	AlwaysUpdate() bool
	PixelCount() int
}

// Settings are the knobs every protocol shares.
type Settings struct {
	Pixels       int
	ChannelOrder string
}

func (s Settings) pixels() int {
	if s.Pixels < 0 {
		return 0
	}
	return s.Pixels
}

// reserver is implemented by transports that size internal buffers up front,
// like the one-wire encoder.
type reserver interface {
	Reserve(n int)
}

// base holds what every encoder has: the transport and a frame buffer sized
// once at construction.
type base struct {
	out    transport.Transport
	pixels int
	frame  []byte
	one    [1]byte
}

func newBase(name string, out transport.Transport, req transport.Capability, pixels, frameLen int) (base, error) {
	if out == nil {
		return base{}, fmt.Errorf("%s: %w", name, ErrNoTransport)
	}
	if have := out.Capability(); !have.Satisfies(req) {
		return base{}, fmt.Errorf("%w: %s needs a %s transport, got %s", ErrIncompatibleTransport, name, req, have)
	}
	if r, ok := out.(reserver); ok {
		r.Reserve(frameLen)
	}
	return base{out: out, pixels: pixels, frame: make([]byte, frameLen)}, nil
}

func (b *base) Initialize() error     { return b.out.Begin() }
func (b *base) PixelCount() int       { return b.pixels }
func (b *base) IsReadyToUpdate() bool { return b.out.IsReadyToUpdate() }
func (b *base) AlwaysUpdate() bool    { return false }
func (b *base) FrameLen() int         { return len(b.frame) }

const (
	spinPolls = 64
	sleepStep = 50 * time.Microsecond
)

// WaitReady blocks until r reports ready. It yields the processor for the
// first polls and then sleeps in short steps.
func WaitReady(r interface{ IsReadyToUpdate() bool }) {
	for i := 0; !r.IsReadyToUpdate(); i++ {
		if i < spinPolls {
			runtime.Gosched()
			continue
		}
		time.Sleep(sleepStep)
	}
}

// latch gates readiness on the time since the last transmission.
type latch struct {
	delay time.Duration
	now   func() time.Time
	last  time.Time
}

func newLatch(d time.Duration) latch {
	return latch{delay: d, now: time.Now}
}

func (l *latch) ready() bool {
	return l.last.IsZero() || l.now().Sub(l.last) >= l.delay
}

func (l *latch) mark() { l.last = l.now() }
