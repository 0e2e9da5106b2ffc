package protocol

import (
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

type Ws2812xSettings struct {
	Settings
	// Wide sends two bytes per channel for 16 bit chips such as the WS2816.
	Wide bool
}

// Ws2812x covers the WS2812/SK6812 family. Channel count and order both come
// from the channel order string, so "GRB", "GRBW" and "GRBWC" strips share
// one encoder.
type Ws2812x[T color.Component] struct {
	base
	order color.ChannelOrder
	wide  bool
}

func NewWs2812x[T color.Component](out transport.Transport, s Ws2812xSettings) (*Ws2812x[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "GRB")
	per := order.Len()
	if s.Wide {
		per *= 2
	}
	b, err := newBase("ws2812x", out, transport.OneWire, n, n*per)
	if err != nil {
		return nil, err
	}
	return &Ws2812x[T]{base: b, order: order, wide: s.Wide}, nil
}

func (p *Ws2812x[T]) Update(colors []color.Color[T]) error {
	WaitReady(p)
	if p.wide {
		packWords(p.frame, colors, p.order, p.pixels)
	} else {
		packBytes(p.frame, colors, p.order, p.pixels)
	}
	return p.transmit(nil, nil)
}
