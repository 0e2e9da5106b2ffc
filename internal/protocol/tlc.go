package protocol

import (
	"fmt"
	"time"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

const (
	tlc5947Channels  = 24
	tlc5947Bytes     = tlc5947Channels * 12 / 8
	tlc59711Channels = 12
	tlc59711Bytes    = 4 + tlc59711Channels*2
	tlc59711Latch    = 20 * time.Microsecond
)

// TailFill chooses what the unused pixel slots of a partially populated
// Tlc5947 module show.
type TailFill uint8

const (
	TailZero TailFill = iota
	// TailRepeatFirst copies the first pixel of the partial module.
	TailRepeatFirst
	// TailRepeatLast copies the last real pixel.
	TailRepeatLast
)

func ParseTailFill(s string) (TailFill, error) {
	switch s {
	case "", "zero":
		return TailZero, nil
	case "repeat_first":
		return TailRepeatFirst, nil
	case "repeat_last":
		return TailRepeatLast, nil
	}
	return 0, fmt.Errorf("%w: tail fill %q", ErrInvalidSettings, s)
}

type Tlc5947Settings struct {
	Settings
	Tail TailFill
}

// Tlc5947 drives 24 channel, 12 bit PWM modules. Each module's channels are
// shifted out last channel first.
type Tlc5947[T color.Component] struct {
	base
	order    color.ChannelOrder
	tail     TailFill
	perMod   int
	modules  int
	channels [tlc5947Channels]uint16
}

func NewTlc5947[T color.Component](out transport.Transport, s Tlc5947Settings) (*Tlc5947[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "RGB")
	if order.Len() == 0 {
		return nil, fmt.Errorf("%w: tlc5947 needs a channel order", ErrInvalidSettings)
	}
	perMod := tlc5947Channels / order.Len()
	modules := ceilDiv(n, perMod)
	b, err := newBase("tlc5947", out, transport.Clocked, n, modules*tlc5947Bytes)
	if err != nil {
		return nil, err
	}
	return &Tlc5947[T]{base: b, order: order, tail: s.Tail, perMod: perMod, modules: modules}, nil
}

func (p *Tlc5947[T]) Modules() int { return p.modules }

// source is the pixel index shown in module slot i.
func (p *Tlc5947[T]) source(m, i int) int {
	idx := m*p.perMod + i
	if idx < p.pixels {
		return idx
	}
	switch p.tail {
	case TailRepeatFirst:
		return m * p.perMod
	case TailRepeatLast:
		return p.pixels - 1
	}
	return -1
}

func (p *Tlc5947[T]) Update(colors []color.Color[T]) error {
	for m := 0; m < p.modules; m++ {
		ch := p.channels[:]
		clear(ch)
		for i := 0; i < p.perMod; i++ {
			src := p.source(m, i)
			if src < 0 {
				continue
			}
			c := at(colors, src)
			for k := 0; k < p.order.Len(); k++ {
				ch[i*p.order.Len()+k] = color.Word(color.Channel(c, p.order, k)) >> 4
			}
		}
		out := p.frame[m*tlc5947Bytes : (m+1)*tlc5947Bytes]
		for k, o := tlc5947Channels-1, 0; k > 0; k, o = k-2, o+3 {
			hi, lo := ch[k], ch[k-1]
			out[o] = byte(hi >> 4)
			out[o+1] = byte(hi<<4) | byte(lo>>8)
			out[o+2] = byte(lo)
		}
	}
	return p.transmit(nil, nil)
}

// Tlc59711Control is the per-chip control word: five flags and a 7 bit
// global brightness per color group.
type Tlc59711Control struct {
	OutTmg bool
	ExtGck bool
	TmgRst bool
	DspRpt bool
	Blank  bool
	BCR    uint8
	BCG    uint8
	BCB    uint8
}

// DefaultTlc59711Control latches on the rising edge, auto repeats and runs
// at full brightness.
func DefaultTlc59711Control() Tlc59711Control {
	return Tlc59711Control{OutTmg: true, TmgRst: true, DspRpt: true, BCR: 127, BCG: 127, BCB: 127}
}

func (c Tlc59711Control) word() uint32 {
	flag := func(b bool, shift uint) uint32 {
		if b {
			return 1 << shift
		}
		return 0
	}
	w := uint32(0x25) << 26
	w |= flag(c.OutTmg, 25) | flag(c.ExtGck, 24) | flag(c.TmgRst, 23) | flag(c.DspRpt, 22) | flag(c.Blank, 21)
	w |= uint32(min(c.BCB, 127)) << 14
	w |= uint32(min(c.BCG, 127)) << 7
	w |= uint32(min(c.BCR, 127))
	return w
}

type Tlc59711Settings struct {
	Settings
	Control Tlc59711Control
}

// Tlc59711 drives 12 channel, 16 bit PWM chips. Chips are sent last first,
// each as a control word followed by its channels in reverse.
type Tlc59711[T color.Component] struct {
	base
	order   color.ChannelOrder
	header  [4]byte
	perChip int
	chips   int
	latch   latch
}

func NewTlc59711[T color.Component](out transport.Transport, s Tlc59711Settings) (*Tlc59711[T], error) {
	n := s.pixels()
	order := color.OrderOr(s.ChannelOrder, "RGB")
	if order.Len() == 0 {
		return nil, fmt.Errorf("%w: tlc59711 needs a channel order", ErrInvalidSettings)
	}
	perChip := tlc59711Channels / order.Len()
	chips := ceilDiv(n, perChip)
	b, err := newBase("tlc59711", out, transport.Clocked, n, chips*tlc59711Bytes)
	if err != nil {
		return nil, err
	}
	p := &Tlc59711[T]{base: b, order: order, perChip: perChip, chips: chips, latch: newLatch(tlc59711Latch)}
	w := s.Control.word()
	p.header = [4]byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
	return p, nil
}

func (p *Tlc59711[T]) Chips() int { return p.chips }

func (p *Tlc59711[T]) IsReadyToUpdate() bool {
	return p.latch.ready() && p.out.IsReadyToUpdate()
}

func (p *Tlc59711[T]) Update(colors []color.Color[T]) error {
	cn := p.order.Len()
	off := 0
	for chip := p.chips - 1; chip >= 0; chip-- {
		off += copy(p.frame[off:], p.header[:])
		for ch := tlc59711Channels - 1; ch >= 0; ch-- {
			var v uint16
			slot, k := ch/cn, ch%cn
			if idx := chip*p.perChip + slot; slot < p.perChip && idx < p.pixels {
				v = color.Word(color.Channel(at(colors, idx), p.order, k))
			}
			off += putWord(p.frame[off:], v)
		}
	}
	if err := p.transmit(nil, nil); err != nil {
		return err
	}
	p.latch.mark()
	return nil
}
