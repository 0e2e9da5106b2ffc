package protocol

import (
	"fmt"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

// DotStarMode selects what goes into the per-pixel prefix byte.
type DotStarMode uint8

const (
	// DotStarFixed sends 0xFF, full global brightness.
	DotStarFixed DotStarMode = iota
	// DotStarLuminance sends 0xE0 with the W channel, clamped to 31, as the
	// 5-bit global brightness.
	DotStarLuminance
)

func ParseDotStarMode(s string) (DotStarMode, error) {
	switch s {
	case "", "fixed":
		return DotStarFixed, nil
	case "luminance":
		return DotStarLuminance, nil
	}
	return 0, fmt.Errorf("%w: dotstar mode %q", ErrInvalidSettings, s)
}

type DotStarSettings struct {
	Settings
	Mode DotStarMode
}

// DotStar drives APA102, SK9822 and compatible chips: a 4 byte zero start
// frame, one prefix plus three channel bytes per pixel, and an end frame of
// zeros long enough to push the data through every pixel.
type DotStar[T color.Component] struct {
	base
	order color.ChannelOrder
	mode  DotStarMode
}

func NewDotStar[T color.Component](out transport.Transport, s DotStarSettings) (*DotStar[T], error) {
	n := s.pixels()
	b, err := newBase("dotstar", out, transport.Clocked, n, n*4)
	if err != nil {
		return nil, err
	}
	return &DotStar[T]{base: b, order: color.OrderOr(s.ChannelOrder, "BGR"), mode: s.Mode}, nil
}

// EndFrameExtra is the number of zero bytes sent after the fixed end frame.
func (p *DotStar[T]) EndFrameExtra() int { return ceilDiv(p.pixels, 16) }

func (p *DotStar[T]) Update(colors []color.Color[T]) error {
	f := p.frame
	for i := 0; i < p.pixels; i++ {
		c := at(colors, i)
		px := f[i*4 : i*4+4]
		px[0] = 0xFF
		if p.mode == DotStarLuminance {
			px[0] = 0xE0 | min(color.Byte(c[3]), 31)
		}
		for ch := 0; ch < 3; ch++ {
			px[1+ch] = color.Byte(color.Channel(c, p.order, ch))
		}
	}
	return p.transmit([]run{zeros(4)}, []run{zeros(4), zeros(p.EndFrameExtra())})
}
