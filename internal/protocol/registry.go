package protocol

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/transport"
)

// Options is the union of every protocol's settings, keyed by protocol name
// in New. Fields a protocol does not use are ignored.
type Options struct {
	Settings
	DotStar  DotStarMode
	Wide     bool
	Tail     TailFill
	Control  Tlc59711Control
	Currents Tm1814Currents
	Tm1914   Tm1914Mode
	Gains    [color.MaxChannels]uint8
}

type entry struct {
	needs transport.Capability
}

var registry = map[string]entry{
	"dotstar":  {transport.Clocked},
	"hd108":    {transport.Clocked},
	"lpd6803":  {transport.Clocked},
	"lpd8806":  {transport.Clocked},
	"p9813":    {transport.Clocked},
	"pixie":    {transport.AnyTransport},
	"sm16716":  {transport.Clocked},
	"sm168x":   {transport.OneWire},
	"tlc5947":  {transport.Clocked},
	"tlc59711": {transport.Clocked},
	"tm1814":   {transport.OneWire},
	"tm1914":   {transport.OneWire},
	"ws2801":   {transport.Clocked},
	"ws2812x":  {transport.OneWire},
}

// Names lists the known protocol names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Requires returns the transport capability a protocol needs.
func Requires(name string) (transport.Capability, error) {
	e, ok := registry[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: unknown protocol %q", ErrInvalidSettings, name)
	}
	return e.needs, nil
}

// wrap keeps a failed constructor's typed nil pointer out of the interface.
func wrap[T color.Component](p Protocol[T], err error) (Protocol[T], error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// New builds the named protocol on out.
func New[T color.Component](name string, out transport.Transport, o Options) (Protocol[T], error) {
	s := o.Settings
	switch strings.ToLower(name) {
	case "dotstar":
		return wrap[T](NewDotStar[T](out, DotStarSettings{Settings: s, Mode: o.DotStar}))
	case "hd108":
		return wrap[T](NewHd108[T](out, s))
	case "lpd6803":
		return wrap[T](NewLpd6803[T](out, s))
	case "lpd8806":
		return wrap[T](NewLpd8806[T](out, s))
	case "p9813":
		return wrap[T](NewP9813[T](out, s))
	case "pixie":
		return wrap[T](NewPixie[T](out, s))
	case "sm16716":
		return wrap[T](NewSm16716[T](out, s))
	case "sm168x":
		return wrap[T](NewSm168x[T](out, Sm168xSettings{Settings: s, Gains: o.Gains}))
	case "tlc5947":
		return wrap[T](NewTlc5947[T](out, Tlc5947Settings{Settings: s, Tail: o.Tail}))
	case "tlc59711":
		return wrap[T](NewTlc59711[T](out, Tlc59711Settings{Settings: s, Control: o.Control}))
	case "tm1814":
		return wrap[T](NewTm1814[T](out, Tm1814Settings{Settings: s, Currents: o.Currents}))
	case "tm1914":
		return wrap[T](NewTm1914[T](out, Tm1914Settings{Settings: s, Mode: o.Tm1914}))
	case "ws2801":
		return wrap[T](NewWs2801[T](out, s))
	case "ws2812x":
		return wrap[T](NewWs2812x[T](out, Ws2812xSettings{Settings: s, Wide: o.Wide}))
	}
	return nil, fmt.Errorf("%w: unknown protocol %q", ErrInvalidSettings, name)
}
