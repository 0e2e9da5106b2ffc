// Package color holds the pixel color model shared by buses and protocols.
//
// A Color always carries five channel slots addressed by tag (R, G, B, W, C).
// How many of them a strip actually uses is decided by the protocol's
// channel order string, not by the type.
package color

const (
	MinChannels = 3
	MaxChannels = 5
)

// Channel tags.
const (
	TagR byte = 'R'
	TagG byte = 'G'
	TagB byte = 'B'
	TagW byte = 'W'
	TagC byte = 'C'
)

// Component is the storage type of one channel.
type Component interface {
	~uint8 | ~uint16
}

// Color is one pixel value. Channels are indexed R, G, B, W, C.
type Color[T Component] [MaxChannels]T

type (
	Color8  = Color[uint8]
	Color16 = Color[uint16]
)

// TagIndex returns the slot for a channel tag, or -1 when the tag is unknown.
// Lower case tags are accepted.
func TagIndex(tag byte) int {
	switch tag {
	case 'R', 'r':
		return 0
	case 'G', 'g':
		return 1
	case 'B', 'b':
		return 2
	case 'W', 'w':
		return 3
	case 'C', 'c':
		return 4
	}
	return -1
}

// New builds a color from channel values in R, G, B, W, C order.
// Missing values are zero, extra values are dropped.
func New[T Component](vals ...T) Color[T] {
	var c Color[T]
	copy(c[:], vals)
	return c
}

func RGB(r, g, b uint8) Color8 {
	return Color8{r, g, b}
}

func RGBW(r, g, b, w uint8) Color8 {
	return Color8{r, g, b, w}
}

// Get returns the channel addressed by tag; unknown tags read as zero.
func (c Color[T]) Get(tag byte) T {
	i := TagIndex(tag)
	if i < 0 {
		return 0
	}
	return c[i]
}

// Set writes the channel addressed by tag; unknown tags are ignored.
func (c *Color[T]) Set(tag byte, v T) {
	if i := TagIndex(tag); i >= 0 {
		c[i] = v
	}
}

// IsWide reports whether T stores 16-bit components.
func IsWide[T Component]() bool {
	return uint64(^T(0)) > 0xFF
}

// Byte narrows a component to 8 bits. 16-bit values keep their high byte.
func Byte[T Component](v T) uint8 {
	if IsWide[T]() {
		return uint8(uint16(v) >> 8)
	}
	return uint8(v)
}

// Word widens a component to 16 bits. 8-bit values are replicated so 0xFF
// maps to 0xFFFF.
func Word[T Component](v T) uint16 {
	if IsWide[T]() {
		return uint16(v)
	}
	b := uint16(uint8(v))
	return b<<8 | b
}

// Widen converts an 8-bit color to 16 bits per channel.
func Widen(c Color8) Color16 {
	var out Color16
	for i, v := range c {
		out[i] = Word(v)
	}
	return out
}

// Narrow converts a 16-bit color to 8 bits per channel.
func Narrow(c Color16) Color8 {
	var out Color8
	for i, v := range c {
		out[i] = Byte(v)
	}
	return out
}
