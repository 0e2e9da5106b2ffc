package bus

import "github.com/coreman2200/pixelbus/internal/color"

// SegmentBus is a window of length pixels starting at offset on a parent
// bus. It clamps against its own length before the parent clamps, so writes
// never leave the window.
type SegmentBus[T color.Component] struct {
	parent Bus[T]
	offset int
	length int
}

// NewSegmentBus returns a view over parent. The window is trimmed to the
// parent's pixel count.
func NewSegmentBus[T color.Component](parent Bus[T], offset, length int) *SegmentBus[T] {
	total := parent.PixelCount()
	offset = min(max(offset, 0), total)
	length = min(max(length, 0), total-offset)
	return &SegmentBus[T]{parent: parent, offset: offset, length: length}
}

func (s *SegmentBus[T]) Offset() int     { return s.offset }
func (s *SegmentBus[T]) PixelCount() int { return s.length }
func (s *SegmentBus[T]) Begin() error    { return s.parent.Begin() }
func (s *SegmentBus[T]) Show() error     { return s.parent.Show() }
func (s *SegmentBus[T]) CanShow() bool   { return s.parent.CanShow() }

func (s *SegmentBus[T]) SetPixelColor(i int, c color.Color[T]) {
	if i < 0 || i >= s.length {
		return
	}
	s.parent.SetPixelColor(s.offset+i, c)
}

func (s *SegmentBus[T]) PixelColor(i int) color.Color[T] {
	if i < 0 || i >= s.length {
		return color.Color[T]{}
	}
	return s.parent.PixelColor(s.offset + i)
}

func (s *SegmentBus[T]) SetPixelColors(offset int, src []color.Color[T]) int {
	src, ok := s.window(offset, src)
	if !ok {
		return 0
	}
	return s.parent.SetPixelColors(s.offset+offset, src)
}

func (s *SegmentBus[T]) PixelColors(offset int, dst []color.Color[T]) int {
	dst, ok := s.window(offset, dst)
	if !ok {
		return 0
	}
	return s.parent.PixelColors(s.offset+offset, dst)
}

// window trims p to the part that fits in the segment from offset.
func (s *SegmentBus[T]) window(offset int, p []color.Color[T]) ([]color.Color[T], bool) {
	if offset < 0 || offset >= s.length {
		return nil, false
	}
	if n := s.length - offset; len(p) > n {
		p = p[:n]
	}
	return p, true
}

func (s *SegmentBus[T]) ClearTo(c color.Color[T]) {
	for i := 0; i < s.length; i++ {
		s.parent.SetPixelColor(s.offset+i, c)
	}
}
