// Package buffer provides pixel storage that is either owned by its holder or
// borrowed from the caller.
package buffer

import "github.com/coreman2200/pixelbus/internal/color"

// PixelBuffer is a fixed-length run of colors.
//
// An owned buffer allocates its storage on construction and drops it on
// Release. A borrowed buffer aliases a caller slice; the caller must keep
// that slice alive and must not resize it while the buffer is in use.
type PixelBuffer[T color.Component] struct {
	colors []color.Color[T]
	owned  bool
}

// New allocates an owned buffer of n pixels. Negative n is treated as zero.
func New[T color.Component](n int) *PixelBuffer[T] {
	if n < 0 {
		n = 0
	}
	return &PixelBuffer[T]{colors: make([]color.Color[T], n), owned: true}
}

// Borrow wraps colors without copying.
func Borrow[T color.Component](colors []color.Color[T]) *PixelBuffer[T] {
	return &PixelBuffer[T]{colors: colors}
}

func (b *PixelBuffer[T]) Len() int { return len(b.colors) }

func (b *PixelBuffer[T]) Owned() bool { return b.owned }

// Colors exposes the backing slice.
func (b *PixelBuffer[T]) Colors() []color.Color[T] { return b.colors }

// Release drops owned storage. Borrowed storage is left to its owner; the
// buffer only forgets it.
func (b *PixelBuffer[T]) Release() {
	b.colors = nil
}

// Set writes one pixel; out of range is a no-op.
func (b *PixelBuffer[T]) Set(i int, c color.Color[T]) {
	if i < 0 || i >= len(b.colors) {
		return
	}
	b.colors[i] = c
}

// At reads one pixel; out of range reads the zero color.
func (b *PixelBuffer[T]) At(i int) color.Color[T] {
	if i < 0 || i >= len(b.colors) {
		return color.Color[T]{}
	}
	return b.colors[i]
}

// CopyIn writes src starting at offset, truncated to the buffer end.
// It returns the number of pixels written.
func (b *PixelBuffer[T]) CopyIn(offset int, src []color.Color[T]) int {
	if offset < 0 || offset >= len(b.colors) {
		return 0
	}
	return copy(b.colors[offset:], src)
}

// CopyOut reads into dst starting at offset, truncated to the buffer end.
func (b *PixelBuffer[T]) CopyOut(offset int, dst []color.Color[T]) int {
	if offset < 0 || offset >= len(b.colors) {
		return 0
	}
	return copy(dst, b.colors[offset:])
}

// Fill sets every pixel to c.
func (b *PixelBuffer[T]) Fill(c color.Color[T]) {
	for i := range b.colors {
		b.colors[i] = c
	}
}
