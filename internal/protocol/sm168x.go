package protocol

import (
	"fmt"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

type Sm168xSettings struct {
	Settings
	// Gains are per wire position current gains. 3 and 4 channel chips take
	// 4 bit gains, 5 channel chips take 5 bit gains. Larger values clamp.
	Gains [color.MaxChannels]uint8
}

// Sm168x covers the SM16803/SM16804/SM16825 family: plain channel bytes
// followed by a trailer carrying packed gains for every channel.
type Sm168x[T color.Component] struct {
	base
	order    color.ChannelOrder
	gainBits int
	trailer  int
}

// sm168xTrailer returns the gain width and trailer length for a channel
// count.
func sm168xTrailer(channels int) (bits, size int, ok bool) {
	switch channels {
	case 3, 4:
		return 4, 2, true
	case 5:
		return 5, 4, true
	}
	return 0, 0, false
}

func NewSm168x[T color.Component](out transport.Transport, s Sm168xSettings) (*Sm168x[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "RGB")
	bits, size, ok := sm168xTrailer(order.Len())
	if !ok {
		return nil, fmt.Errorf("%w: sm168x takes 3 to 5 channels, order %q has %d", ErrInvalidSettings, order, order.Len())
	}
	b, err := newBase("sm168x", out, transport.OneWire, n, n*order.Len()+size)
	if err != nil {
		return nil, err
	}
	p := &Sm168x[T]{base: b, order: order, gainBits: bits, trailer: size}
	p.SetGains(s.Gains)
	return p, nil
}

// SetGains rewrites the trailer sent with the next frame.
func (p *Sm168x[T]) SetGains(gains [color.MaxChannels]uint8) {
	t := p.frame[len(p.frame)-p.trailer:]
	clear(t)
	w := bitWriter{buf: t}
	limit := uint8(1<<uint(p.gainBits) - 1)
	for i := 0; i < p.order.Len(); i++ {
		w.put(uint32(min(gains[i], limit)), p.gainBits)
	}
}

func (p *Sm168x[T]) Update(colors []color.Color[T]) error {
	WaitReady(p)
	packBytes(p.frame, colors, p.order, p.pixels)
	return p.transmit(nil, nil)
}
