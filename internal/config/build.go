package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/coreman2200/pixelbus/internal/bus"
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/layout"
	"github.com/coreman2200/pixelbus/internal/onewire"
	"github.com/coreman2200/pixelbus/internal/protocol"
	"github.com/coreman2200/pixelbus/internal/transport"
)

const defaultSPIDev = "/dev/spidev0.0"

var ErrInvalid = errors.New("config: invalid")

// PortOpener opens an SPI port by name. spireg.Open is used when nil.
type PortOpener func(dev string) (spi.Port, error)

func openRegistered(dev string) (spi.Port, error) {
	return spireg.Open(dev)
}

// Options tweak how a config is turned into live buses.
type Options struct {
	// SimOnly replaces every hardware transport with an in-memory recorder.
	SimOnly bool
	Open    PortOpener
}

// Rig is the set of buses built from a config.
type Rig struct {
	// Bus is the top level bus the layout section describes.
	Bus    bus.Bus[uint8]
	Strips map[string]*bus.PixelBus[uint8]
	// Segments are named windows over Bus.
	Segments map[string]*bus.SegmentBus[uint8]
	// Mosaic is set when the layout is a mosaic.
	Mosaic *bus.MosaicBus[uint8]

	// Recorders are the in-memory transports of simulated strips.
	Recorders map[string]*transport.Recorder

	closers []io.Closer
}

// Close releases every transport the rig opened.
func (r *Rig) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Build wires strips, transports and protocols into buses and arranges them
// as the layout section says. On error every opened transport is closed.
func Build(c *Config, opt Options) (*Rig, error) {
	if len(c.Strips) == 0 {
		return nil, fmt.Errorf("%w: no strips", ErrInvalid)
	}
	if opt.Open == nil {
		opt.Open = openRegistered
	}
	r := &Rig{
		Strips:    make(map[string]*bus.PixelBus[uint8]),
		Segments:  make(map[string]*bus.SegmentBus[uint8]),
		Recorders: make(map[string]*transport.Recorder),
	}
	ok := false
	defer func() {
		if !ok {
			_ = r.Close()
		}
	}()

	for _, s := range c.Strips {
		if _, dup := r.Strips[s.Name]; dup || s.Name == "" {
			return nil, fmt.Errorf("%w: strip name %q missing or repeated", ErrInvalid, s.Name)
		}
		pb, err := r.buildStrip(s, opt)
		if err != nil {
			return nil, fmt.Errorf("strip %s: %w", s.Name, err)
		}
		r.Strips[s.Name] = pb
	}

	top, err := r.arrange(c)
	if err != nil {
		return nil, err
	}
	r.Bus = top

	for _, sg := range c.Layout.Segments {
		r.Segments[sg.Name] = bus.NewSegmentBus[uint8](top, sg.Offset, sg.Length)
	}
	log.Debug().
		Int("strips", len(r.Strips)).
		Int("pixels", top.PixelCount()).
		Str("layout", c.Layout.Kind).
		Msg("rig built")
	ok = true
	return r, nil
}

func (r *Rig) buildStrip(s Strip, opt Options) (*bus.PixelBus[uint8], error) {
	if s.Pixels <= 0 {
		return nil, fmt.Errorf("%w: pixels must be positive", ErrInvalid)
	}
	popt, err := protocolOptions(s)
	if err != nil {
		return nil, err
	}
	needs, err := protocol.Requires(s.Protocol.Name)
	if err != nil {
		return nil, err
	}
	if err := checkRawSink(strings.ToLower(s.Transport.Kind), s, needs, &popt); err != nil {
		return nil, err
	}
	out, err := r.buildTransport(s, needs, opt)
	if err != nil {
		return nil, err
	}
	p, err := protocol.New[uint8](s.Protocol.Name, out, popt)
	if err != nil {
		return nil, err
	}
	return bus.NewPixelBus[uint8](p), nil
}

func (r *Rig) buildTransport(s Strip, needs transport.Capability, opt Options) (transport.Transport, error) {
	t := s.Transport
	kind := strings.ToLower(t.Kind)
	if opt.SimOnly || kind == "" {
		kind = "sim"
	}
	settings := transport.Settings{ClockHz: uint32(t.SpeedHz), Invert: t.Invert}

	var out transport.Transport
	switch kind {
	case "sim":
		out = r.simulate(s.Name, settings)

	case "console":
		con := transport.NewConsole(s.Pixels)
		r.closers = append(r.closers, con)
		out = con

	case "spi", "nrz":
		dev := t.Dev
		if dev == "" {
			dev = defaultSPIDev
		}
		port, err := opt.Open(dev)
		if err != nil {
			log.Warn().Err(err).
				Str("strip", s.Name).
				Str("dev", dev).
				Str("transport", kind).
				Msg("port open failed; falling back to sim")
			out = r.simulate(s.Name, settings)
			break
		}
		if kind == "spi" {
			sp := transport.NewSPI(port, settings)
			r.closers = append(r.closers, sp)
			out = sp
			break
		}
		if c, ok := port.(io.Closer); ok {
			r.closers = append(r.closers, c)
		}
		channels := color.OrderOr(s.Protocol.ChannelOrder, "RGB").Len()
		n, err := transport.NewNRZ(port, s.Pixels, channels, physic.Frequency(t.SpeedHz)*physic.Hertz)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, n)
		out = n

	default:
		return nil, fmt.Errorf("%w: transport kind %q", ErrInvalid, t.Kind)
	}

	if needs == transport.OneWire && !out.Capability().Satisfies(transport.OneWire) {
		timing, err := timingFor(s)
		if err != nil {
			return nil, err
		}
		enc, err := onewire.NewEncoder(out, timing)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
	return out, nil
}

// simulate returns an in-memory transport that keeps only the latest frame.
func (r *Rig) simulate(name string, settings transport.Settings) *transport.Recorder {
	rec := transport.NewRecorder(transport.Clocked)
	rec.Settings = settings
	rec.Keep = 1
	r.Recorders[name] = rec
	return rec
}

// checkRawSink rejects protocols a raw pixel sink cannot carry. nrzled takes
// bare RGB pixels and does its own GRB reordering; the console draws bare RGB
// triples. Neither understands framing bytes.
func checkRawSink(kind string, s Strip, needs transport.Capability, o *protocol.Options) error {
	name := strings.ToLower(s.Protocol.Name)
	switch kind {
	case "nrz":
		if needs == transport.Clocked {
			// the protocol constructor reports the capability mismatch
			return nil
		}
		if name != "ws2812x" {
			return fmt.Errorf("%w: nrz carries ws2812x only, not %s", ErrInvalid, s.Protocol.Name)
		}
		if o.Wide {
			return fmt.Errorf("%w: nrz carries 8 bit channels only", ErrInvalid)
		}
	case "console":
		if name != "ws2801" && name != "pixie" {
			return fmt.Errorf("%w: console draws ws2801 or pixie only, not %s", ErrInvalid, s.Protocol.Name)
		}
	default:
		return nil
	}
	switch strings.ToUpper(o.ChannelOrder) {
	case "":
		o.ChannelOrder = "RGB"
	case "RGB":
	default:
		return fmt.Errorf("%w: %s transport needs channel order RGB, got %q", ErrInvalid, kind, o.ChannelOrder)
	}
	return nil
}

// timingFor picks the configured one-wire preset, or the protocol's own.
func timingFor(s Strip) (onewire.Timing, error) {
	name := s.Transport.Timing
	if name == "" {
		name = s.Protocol.Name
		if strings.EqualFold(name, "sm168x") {
			name = onewire.Generic800.Name
		}
	}
	t, ok := onewire.Lookup(name)
	if !ok {
		return onewire.Timing{}, fmt.Errorf("%w: unknown timing %q", ErrInvalid, name)
	}
	return t, nil
}

func protocolOptions(s Strip) (protocol.Options, error) {
	p := s.Protocol
	o := protocol.Options{
		Settings: protocol.Settings{Pixels: s.Pixels, ChannelOrder: p.ChannelOrder},
		Wide:     p.Wide,
		Control:  protocol.DefaultTlc59711Control(),
	}
	var err error
	if o.DotStar, err = protocol.ParseDotStarMode(p.DotStarMode); err != nil {
		return o, err
	}
	if o.Tail, err = protocol.ParseTailFill(p.TailFill); err != nil {
		return o, err
	}
	if o.Tm1914, err = protocol.ParseTm1914Mode(p.Tm1914Mode); err != nil {
		return o, err
	}
	if p.Currents != nil {
		o.Currents = protocol.Tm1814Currents{R: p.Currents.R, G: p.Currents.G, B: p.Currents.B, W: p.Currents.W}
	} else {
		o.Currents = protocol.Tm1814Currents{R: protocol.Tm1814MaxCurrent, G: protocol.Tm1814MaxCurrent, B: protocol.Tm1814MaxCurrent, W: protocol.Tm1814MaxCurrent}
	}
	if len(p.Gains) > color.MaxChannels {
		return o, fmt.Errorf("%w: %d gains, at most %d", ErrInvalid, len(p.Gains), color.MaxChannels)
	}
	if p.Gains == nil {
		for i := range o.Gains {
			o.Gains[i] = 0xFF
		}
	}
	copy(o.Gains[:], p.Gains)
	if t := p.Tlc59711; t != nil {
		setFlag(&o.Control.OutTmg, t.OutTmg)
		setFlag(&o.Control.ExtGck, t.ExtGck)
		setFlag(&o.Control.TmgRst, t.TmgRst)
		setFlag(&o.Control.DspRpt, t.DspRpt)
		setFlag(&o.Control.Blank, t.Blank)
		bc := []*uint8{&o.Control.BCR, &o.Control.BCG, &o.Control.BCB}
		for i := 0; i < len(t.Brightness) && i < len(bc); i++ {
			*bc[i] = t.Brightness[i]
		}
	}
	return o, nil
}

func setFlag(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// arrange builds the top level bus from the layout section.
func (r *Rig) arrange(c *Config) (bus.Bus[uint8], error) {
	l := c.Layout
	names := l.Strips
	if len(names) == 0 {
		for _, s := range c.Strips {
			names = append(names, s.Name)
		}
	}
	children := make([]bus.Bus[uint8], 0, len(names))
	for _, n := range names {
		pb, ok := r.Strips[n]
		if !ok {
			return nil, fmt.Errorf("%w: layout names unknown strip %q", ErrInvalid, n)
		}
		children = append(children, pb)
	}

	switch strings.ToLower(l.Kind) {
	case "", "single":
		if len(children) == 1 {
			return children[0], nil
		}
		return bus.NewConcatBus[uint8](children...), nil
	case "concat":
		return bus.NewConcatBus[uint8](children...), nil
	case "mosaic":
		m := l.Mosaic
		pl, err := layout.Parse(m.PanelLayout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		tl, err := layout.Parse(m.TileLayout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		mb, err := bus.NewMosaicBus[uint8](bus.MosaicConfig{
			PanelWidth:  m.PanelWidth,
			PanelHeight: m.PanelHeight,
			TilesWide:   m.TilesWide,
			TilesHigh:   m.TilesHigh,
			PanelLayout: pl,
			TileLayout:  tl,
			Rotate:      m.Rotate,
		}, children...)
		if err != nil {
			return nil, err
		}
		r.Mosaic = mb
		return mb, nil
	}
	return nil, fmt.Errorf("%w: layout kind %q", ErrInvalid, l.Kind)
}
