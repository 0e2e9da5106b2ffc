package protocol

import (
	"time"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

const (
	ws2801Latch = 500 * time.Microsecond
	pixieLatch  = time.Millisecond
)

// Ws2801 sends raw channel bytes with no framing. The chip latches once the
// clock has been idle for 500µs.
type Ws2801[T color.Component] struct {
	base
	order color.ChannelOrder
	latch latch
}

func NewWs2801[T color.Component](out transport.Transport, s Settings) (*Ws2801[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "RGB")
	b, err := newBase("ws2801", out, transport.Clocked, n, n*order.Len())
	if err != nil {
		return nil, err
	}
	return &Ws2801[T]{base: b, order: order, latch: newLatch(ws2801Latch)}, nil
}

func (p *Ws2801[T]) IsReadyToUpdate() bool {
	return p.latch.ready() && p.out.IsReadyToUpdate()
}

func (p *Ws2801[T]) Update(colors []color.Color[T]) error {
	packBytes(p.frame, colors, p.order, p.pixels)
	if err := p.transmit(nil, nil); err != nil {
		return err
	}
	p.latch.mark()
	return nil
}

// Pixie drives Adafruit Pixie serial pixels. They blank unless refreshed
// continuously, so every show sends a frame, and frames are spaced by a 1ms
// latch.
type Pixie[T color.Component] struct {
	base
	order color.ChannelOrder
	latch latch
}

func NewPixie[T color.Component](out transport.Transport, s Settings) (*Pixie[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "RGB")
	b, err := newBase("pixie", out, transport.AnyTransport, n, n*order.Len())
	if err != nil {
		return nil, err
	}
	return &Pixie[T]{base: b, order: order, latch: newLatch(pixieLatch)}, nil
}

func (p *Pixie[T]) AlwaysUpdate() bool { return true }

func (p *Pixie[T]) IsReadyToUpdate() bool {
	return p.latch.ready() && p.out.IsReadyToUpdate()
}

func (p *Pixie[T]) Update(colors []color.Color[T]) error {
	WaitReady(p)
	packBytes(p.frame, colors, p.order, p.pixels)
	if err := p.transmit(nil, nil); err != nil {
		return err
	}
	p.latch.mark()
	return nil
}
