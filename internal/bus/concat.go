package bus

import (
	"errors"
	"sort"

	"github.com/coreman2200/pixelbus/internal/color"
)

// ConcatBus chains child buses of any length into one index space. The
// children are borrowed and must outlive it.
type ConcatBus[T color.Component] struct {
	children []Bus[T]
	// offsets[i] is the global index of children[i]'s first pixel.
	offsets []int
	total   int
}

func NewConcatBus[T color.Component](children ...Bus[T]) *ConcatBus[T] {
	b := &ConcatBus[T]{
		children: children,
		offsets:  make([]int, len(children)),
	}
	for i, c := range children {
		b.offsets[i] = b.total
		b.total += c.PixelCount()
	}
	return b
}

// Resolve maps global index g to a child and its local index.
func (b *ConcatBus[T]) Resolve(g int) (child, local int, ok bool) {
	if g < 0 || g >= b.total {
		return 0, 0, false
	}
	// greatest i with offsets[i] <= g; skips empty children
	i := sort.Search(len(b.offsets), func(i int) bool { return b.offsets[i] > g }) - 1
	return i, g - b.offsets[i], true
}

func (b *ConcatBus[T]) Children() []Bus[T] { return b.children }
func (b *ConcatBus[T]) PixelCount() int    { return b.total }

func (b *ConcatBus[T]) Begin() error {
	var errs []error
	for _, c := range b.children {
		errs = append(errs, c.Begin())
	}
	return errors.Join(errs...)
}

func (b *ConcatBus[T]) Show() error {
	var errs []error
	for _, c := range b.children {
		errs = append(errs, c.Show())
	}
	return errors.Join(errs...)
}

// CanShow reports true only when every child can show.
func (b *ConcatBus[T]) CanShow() bool {
	for _, c := range b.children {
		if !c.CanShow() {
			return false
		}
	}
	return true
}

func (b *ConcatBus[T]) SetPixelColor(g int, c color.Color[T]) {
	if i, l, ok := b.Resolve(g); ok {
		b.children[i].SetPixelColor(l, c)
	}
}

func (b *ConcatBus[T]) PixelColor(g int) color.Color[T] {
	if i, l, ok := b.Resolve(g); ok {
		return b.children[i].PixelColor(l)
	}
	return color.Color[T]{}
}

func (b *ConcatBus[T]) SetPixelColors(offset int, src []color.Color[T]) int {
	return b.span(offset, len(src), func(child, local, at, n int) int {
		return b.children[child].SetPixelColors(local, src[at:at+n])
	})
}

func (b *ConcatBus[T]) PixelColors(offset int, dst []color.Color[T]) int {
	return b.span(offset, len(dst), func(child, local, at, n int) int {
		return b.children[child].PixelColors(local, dst[at:at+n])
	})
}

// span walks count pixels from offset one child run at a time, handing each
// run to fn, and returns the number fn reported handled.
func (b *ConcatBus[T]) span(offset, count int, fn func(child, local, at, n int) int) int {
	done := 0
	for done < count {
		i, l, ok := b.Resolve(offset + done)
		if !ok {
			break
		}
		n := min(count-done, b.children[i].PixelCount()-l)
		k := fn(i, l, done, n)
		done += k
		if k < n || n == 0 {
			break
		}
	}
	return done
}

func (b *ConcatBus[T]) ClearTo(c color.Color[T]) {
	for _, ch := range b.children {
		ch.ClearTo(c)
	}
}
