package transport

import (
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Console previews raw RGB frames in the terminal through periph.io's fake
// screen strip. It accepts clocked protocols with a 3-byte RGB payload and
// no framing, which in practice means ws2801 or pixie with "RGB" order.
type Console struct {
	mu     sync.Mutex
	drawer display.Drawer
	img    *image.NRGBA
	frame  []byte
}

func NewConsole(pixels int) *Console {
	return newConsole(screen.New(pixels), pixels)
}

func newConsole(d display.Drawer, pixels int) *Console {
	return &Console{
		drawer: d,
		img:    image.NewNRGBA(image.Rect(0, 0, pixels, 1)),
		frame:  make([]byte, 0, pixels*3),
	}
}

func (c *Console) Begin() error { return nil }

func (c *Console) BeginTransaction() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = c.frame[:0]
	return nil
}

func (c *Console) TransmitBytes(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = append(c.frame, p...)
	return nil
}

func (c *Console) EndTransaction() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.img.Rect.Max.X
	for x := 0; x < w; x++ {
		var px color.NRGBA
		if i := x * 3; i+2 < len(c.frame) {
			px = color.NRGBA{R: c.frame[i], G: c.frame[i+1], B: c.frame[i+2], A: 255}
		}
		c.img.SetNRGBA(x, 0, px)
	}
	return c.drawer.Draw(c.drawer.Bounds(), c.img, image.Point{})
}

func (c *Console) IsReadyToUpdate() bool { return true }

func (c *Console) Capability() Capability { return Clocked }

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawer.Halt()
}
