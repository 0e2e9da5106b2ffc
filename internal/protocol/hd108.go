package protocol

import (
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

// Hd108 sends 16-bit channels behind a 16-bit brightness word held at max.
type Hd108[T color.Component] struct {
	base
	order color.ChannelOrder
}

func NewHd108[T color.Component](out transport.Transport, s Settings) (*Hd108[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "RGB")
	b, err := newBase("hd108", out, transport.Clocked, n, n*(2+2*order.Len()))
	if err != nil {
		return nil, err
	}
	return &Hd108[T]{base: b, order: order}, nil
}

func (p *Hd108[T]) Update(colors []color.Color[T]) error {
	f := p.frame
	off := 0
	for i := 0; i < p.pixels; i++ {
		c := at(colors, i)
		off += putWord(f[off:], 0xFFFF)
		for ch := 0; ch < p.order.Len(); ch++ {
			off += putWord(f[off:], color.Word(color.Channel(c, p.order, ch)))
		}
	}
	return p.transmit([]run{zeros(16)}, []run{ones(4)})
}
