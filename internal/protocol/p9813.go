package protocol

import (
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

// P9813 prefixes every BGR pixel with a checksum byte built from the
// inverted top two bits of each channel.
type P9813[T color.Component] struct {
	base
}

func NewP9813[T color.Component](out transport.Transport, s Settings) (*P9813[T], error) {
	n := s.pixels()
	b, err := newBase("p9813", out, transport.Clocked, n, n*4)
	if err != nil {
		return nil, err
	}
	return &P9813[T]{base: b}, nil
}

func p9813Header(r, g, b uint8) byte {
	return 0xC0 | (^b>>6&3)<<4 | (^g>>6&3)<<2 | ^r>>6&3
}

func (p *P9813[T]) Update(colors []color.Color[T]) error {
	for i := 0; i < p.pixels; i++ {
		c := at(colors, i)
		r, g, b := color.Byte(c[0]), color.Byte(c[1]), color.Byte(c[2])
		px := p.frame[i*4 : i*4+4]
		px[0] = p9813Header(r, g, b)
		px[1], px[2], px[3] = b, g, r
	}
	return p.transmit([]run{zeros(4)}, []run{zeros(4)})
}
