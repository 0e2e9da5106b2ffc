package protocol

import "github.com/coreman2200/pixelbus/internal/color"

// run is a stretch of identical framing bytes. Each byte goes out in its own
// TransmitBytes call.
type run struct {
	v byte
	n int
}

func zeros(n int) run { return run{0x00, n} }
func ones(n int) run  { return run{0xFF, n} }

// transmit sends head framing, the frame buffer and tail framing as one
// transaction.
func (b *base) transmit(head, tail []run) error {
	if err := b.out.BeginTransaction(); err != nil {
		return err
	}
	if err := b.sendRuns(head); err != nil {
		return err
	}
	if err := b.out.TransmitBytes(b.frame); err != nil {
		return err
	}
	if err := b.sendRuns(tail); err != nil {
		return err
	}
	return b.out.EndTransaction()
}

func (b *base) sendRuns(runs []run) error {
	for _, r := range runs {
		for i := 0; i < r.n; i++ {
			// refilled every call; a transport may have written over it
			b.one[0] = r.v
			if err := b.out.TransmitBytes(b.one[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// at returns colors[i], or black when the caller supplied fewer colors than
// the strip has pixels.
func at[T color.Component](colors []color.Color[T], i int) color.Color[T] {
	if i < len(colors) {
		return colors[i]
	}
	var zero color.Color[T]
	return zero
}

// packBytes writes one byte per ordered channel for each pixel and returns
// the number of bytes written.
func packBytes[T color.Component](dst []byte, colors []color.Color[T], o color.ChannelOrder, pixels int) int {
	n := 0
	for i := 0; i < pixels; i++ {
		c := at(colors, i)
		for ch := 0; ch < o.Len(); ch++ {
			dst[n] = color.Byte(color.Channel(c, o, ch))
			n++
		}
	}
	return n
}

// packWords is packBytes with big-endian 16-bit channels.
func packWords[T color.Component](dst []byte, colors []color.Color[T], o color.ChannelOrder, pixels int) int {
	n := 0
	for i := 0; i < pixels; i++ {
		c := at(colors, i)
		for ch := 0; ch < o.Len(); ch++ {
			n += putWord(dst[n:], color.Word(color.Channel(c, o, ch)))
		}
	}
	return n
}

func putWord(dst []byte, v uint16) int {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
	return 2
}

// bitWriter packs values MSB-first into a zeroed byte slice.
type bitWriter struct {
	buf []byte
	pos int
}

func (w *bitWriter) put(v uint32, bits int) {
	for i := bits - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			w.buf[w.pos>>3] |= 0x80 >> uint(w.pos&7)
		}
		w.pos++
	}
}

func (w *bitWriter) skip(bits int) { w.pos += bits }
