// Package bus exposes LED strips as indexable pixel arrays and composes
// several of them into one logical strip or grid.
//
// Addressing never fails: reads outside a bus return black and writes
// outside it are dropped.
package bus

import (
	"errors"

	"github.com/coreman2200/pixelbus/internal/buffer"
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/protocol"
)

var ErrInvalidDimensions = errors.New("bus: invalid dimensions")

// Bus is an addressable run of pixels.
type Bus[T color.Component] interface {
	Begin() error
	// Show pushes pending changes to the hardware.
	Show() error
	CanShow() bool
	PixelCount() int

	SetPixelColor(i int, c color.Color[T])
	PixelColor(i int) color.Color[T]
	// SetPixelColors copies src starting at offset, truncated to the bus,
	// and returns the number of pixels written.
	SetPixelColors(offset int, src []color.Color[T]) int
	// PixelColors copies pixels starting at offset into dst and returns the
	// number read.
	PixelColors(offset int, dst []color.Color[T]) int
	ClearTo(c color.Color[T])
}

// PixelBus binds one pixel buffer to one protocol.
type PixelBus[T color.Component] struct {
	buf   *buffer.PixelBuffer[T]
	proto protocol.Protocol[T]
	dirty bool
}

// NewPixelBus allocates a buffer sized to the protocol's pixel count.
func NewPixelBus[T color.Component](p protocol.Protocol[T]) *PixelBus[T] {
	return &PixelBus[T]{buf: buffer.New[T](p.PixelCount()), proto: p}
}

// NewPixelBusOn uses caller owned storage. colors must outlive the bus; only
// the first PixelCount entries are used.
func NewPixelBusOn[T color.Component](p protocol.Protocol[T], colors []color.Color[T]) *PixelBus[T] {
	if len(colors) > p.PixelCount() {
		colors = colors[:p.PixelCount()]
	}
	return &PixelBus[T]{buf: buffer.Borrow(colors), proto: p}
}

func (b *PixelBus[T]) Protocol() protocol.Protocol[T] { return b.proto }
func (b *PixelBus[T]) Buffer() *buffer.PixelBuffer[T] { return b.buf }

func (b *PixelBus[T]) Begin() error { return b.proto.Initialize() }

// Show transmits when the buffer changed since the last successful show, or
// always when the protocol asks for continuous refresh.
func (b *PixelBus[T]) Show() error {
	if !b.dirty && !b.proto.AlwaysUpdate() {
		return nil
	}
	if err := b.proto.Update(b.buf.Colors()); err != nil {
		return err
	}
	b.dirty = false
	return nil
}

func (b *PixelBus[T]) CanShow() bool   { return b.proto.IsReadyToUpdate() }
func (b *PixelBus[T]) PixelCount() int { return b.buf.Len() }
func (b *PixelBus[T]) IsDirty() bool   { return b.dirty }
func (b *PixelBus[T]) MarkDirty()      { b.dirty = true }

func (b *PixelBus[T]) SetPixelColor(i int, c color.Color[T]) {
	if i < 0 || i >= b.buf.Len() {
		return
	}
	b.buf.Set(i, c)
	b.dirty = true
}

func (b *PixelBus[T]) PixelColor(i int) color.Color[T] { return b.buf.At(i) }

func (b *PixelBus[T]) SetPixelColors(offset int, src []color.Color[T]) int {
	n := b.buf.CopyIn(offset, src)
	if n > 0 {
		b.dirty = true
	}
	return n
}

func (b *PixelBus[T]) PixelColors(offset int, dst []color.Color[T]) int {
	return b.buf.CopyOut(offset, dst)
}

func (b *PixelBus[T]) ClearTo(c color.Color[T]) {
	b.buf.Fill(c)
	b.dirty = true
}

// Release drops an owned buffer. The bus must not be used afterwards.
func (b *PixelBus[T]) Release() { b.buf.Release() }
