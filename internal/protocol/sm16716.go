package protocol

import (
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

const (
	sm16716StartBits = 50
	sm16716Separator = 1
)

// Sm16716 is bit oriented: a 50 bit zero start frame, then for each pixel a
// high separator bit and 8 bits per channel. The whole stream is packed
// MSB-first into the frame buffer.
type Sm16716[T color.Component] struct {
	base
	order color.ChannelOrder
}

func NewSm16716[T color.Component](out transport.Transport, s Settings) (*Sm16716[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "RGB")
	bits := sm16716StartBits + n*(sm16716Separator+8*order.Len())
	b, err := newBase("sm16716", out, transport.Clocked, n, ceilDiv(bits, 8))
	if err != nil {
		return nil, err
	}
	return &Sm16716[T]{base: b, order: order}, nil
}

func (p *Sm16716[T]) Update(colors []color.Color[T]) error {
	clear(p.frame)
	w := bitWriter{buf: p.frame}
	w.skip(sm16716StartBits)
	for i := 0; i < p.pixels; i++ {
		c := at(colors, i)
		w.put(1, sm16716Separator)
		for ch := 0; ch < p.order.Len(); ch++ {
			w.put(uint32(color.Byte(color.Channel(c, p.order, ch))), 8)
		}
	}
	return p.transmit(nil, nil)
}
