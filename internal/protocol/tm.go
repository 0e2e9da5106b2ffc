package protocol

import (
	"fmt"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

// Tm1814 current limits in tenths of a milliamp.
const (
	Tm1814MinCurrent = 65
	Tm1814MaxCurrent = 380
	tm1814Step       = 5
	tm1814Header     = 8
)

// Tm1814Currents are per channel constant current settings in tenths of a
// milliamp. Values are clamped to [65, 380].
type Tm1814Currents struct {
	R, G, B, W uint16
}

func (c Tm1814Currents) slot(i int) uint16 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	case 2:
		return c.B
	case 3:
		return c.W
	}
	return 0
}

// Tm1814Gain converts a current in tenths of a milliamp to the chip's gain
// code.
func Tm1814Gain(current uint16) byte {
	v := min(max(current, Tm1814MinCurrent), Tm1814MaxCurrent)
	return byte((v - Tm1814MinCurrent) / tm1814Step)
}

type Tm1814Settings struct {
	Settings
	Currents Tm1814Currents
}

// Tm1814 is an RGBW one-wire chip whose frame starts with four gain bytes in
// channel order followed by their complements.
type Tm1814[T color.Component] struct {
	base
	order color.ChannelOrder
}

func NewTm1814[T color.Component](out transport.Transport, s Tm1814Settings) (*Tm1814[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "WRGB")
	b, err := newBase("tm1814", out, transport.OneWire, n, tm1814Header+n*order.Len())
	if err != nil {
		return nil, err
	}
	p := &Tm1814[T]{base: b, order: order}
	p.SetCurrents(s.Currents)
	return p, nil
}

// SetCurrents rewrites the settings header sent with the next frame.
func (p *Tm1814[T]) SetCurrents(c Tm1814Currents) {
	for i := 0; i < 4; i++ {
		var cur uint16
		if s := p.order.Index(i); s >= 0 {
			cur = c.slot(s)
		}
		g := Tm1814Gain(cur)
		p.frame[i] = g
		p.frame[4+i] = ^g
	}
}

func (p *Tm1814[T]) Update(colors []color.Color[T]) error {
	WaitReady(p)
	packBytes(p.frame[tm1814Header:], colors, p.order, p.pixels)
	return p.transmit(nil, nil)
}

// Tm1914Mode selects which data input a TM1914 listens on.
type Tm1914Mode byte

const (
	Tm1914DinFdinAutoSwitch Tm1914Mode = 0xFF
	Tm1914DinOnly           Tm1914Mode = 0xF5
	Tm1914FdinOnly          Tm1914Mode = 0xFA
)

func ParseTm1914Mode(s string) (Tm1914Mode, error) {
	switch s {
	case "", "auto":
		return Tm1914DinFdinAutoSwitch, nil
	case "din":
		return Tm1914DinOnly, nil
	case "fdin":
		return Tm1914FdinOnly, nil
	}
	return 0, fmt.Errorf("%w: tm1914 mode %q", ErrInvalidSettings, s)
}

const tm1914Header = 6

type Tm1914Settings struct {
	Settings
	Mode Tm1914Mode
}

// Tm1914 frames start with a fixed six byte header carrying the input mode
// and its complement.
type Tm1914[T color.Component] struct {
	base
	order color.ChannelOrder
}

func NewTm1914[T color.Component](out transport.Transport, s Tm1914Settings) (*Tm1914[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "GRB")
	b, err := newBase("tm1914", out, transport.OneWire, n, tm1914Header+n*order.Len())
	if err != nil {
		return nil, err
	}
	mode := s.Mode
	if mode == 0 {
		mode = Tm1914DinFdinAutoSwitch
	}
	p := &Tm1914[T]{base: b, order: order}
	copy(p.frame, []byte{0xFF, 0xFF, byte(mode), 0x00, 0x00, ^byte(mode)})
	return p, nil
}

func (p *Tm1914[T]) Update(colors []color.Color[T]) error {
	WaitReady(p)
	packBytes(p.frame[tm1914Header:], colors, p.order, p.pixels)
	return p.transmit(nil, nil)
}
