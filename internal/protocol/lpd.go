package protocol

import (
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

// Lpd6803 packs each pixel into a 16-bit word: a leading one bit followed by
// three 5-bit channels.
type Lpd6803[T color.Component] struct {
	base
	order color.ChannelOrder
}

func NewLpd6803[T color.Component](out transport.Transport, s Settings) (*Lpd6803[T], error) {
	n := s.pixels()
	b, err := newBase("lpd6803", out, transport.Clocked, n, n*2)
	if err != nil {
		return nil, err
	}
	return &Lpd6803[T]{base: b, order: color.OrderOr(s.ChannelOrder, "RGB")}, nil
}

func (p *Lpd6803[T]) Update(colors []color.Color[T]) error {
	for i := 0; i < p.pixels; i++ {
		c := at(colors, i)
		w := uint16(0x8000)
		for ch := 0; ch < 3; ch++ {
			v := uint16(color.Byte(color.Channel(c, p.order, ch)) >> 3)
			w |= v << uint(10-5*ch)
		}
		putWord(p.frame[i*2:], w)
	}
	return p.transmit([]run{zeros(4)}, []run{zeros(ceilDiv(p.pixels, 8))})
}

// Lpd8806 sends 7-bit channels with the top bit of every byte set. Latch
// framing grows by one byte per 32 pixels on both ends.
type Lpd8806[T color.Component] struct {
	base
	order color.ChannelOrder
}

func NewLpd8806[T color.Component](out transport.Transport, s Settings) (*Lpd8806[T], error) {
	n := s.pixels()
	b, err := newBase("lpd8806", out, transport.Clocked, n, n*3)
	if err != nil {
		return nil, err
	}
	return &Lpd8806[T]{base: b, order: color.OrderOr(s.ChannelOrder, "GRB")}, nil
}

func (p *Lpd8806[T]) Update(colors []color.Color[T]) error {
	for i := 0; i < p.pixels; i++ {
		c := at(colors, i)
		for ch := 0; ch < 3; ch++ {
			p.frame[i*3+ch] = color.Byte(color.Channel(c, p.order, ch))>>1 | 0x80
		}
	}
	latch := ceilDiv(p.pixels, 32)
	return p.transmit([]run{zeros(latch)}, []run{ones(latch)})
}
