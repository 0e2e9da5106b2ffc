package color

// ChannelOrder is a parsed channel order string such as "GRB" or "WRGB".
// The tag lookup is done once here so per-pixel serialization only indexes
// a small table.
type ChannelOrder struct {
	tags string
	idx  [MaxChannels]int8
	n    int
}

// ParseChannelOrder parses s. Unknown tags are kept as positions that
// always serialize to zero. Characters past MaxChannels are ignored.
func ParseChannelOrder(s string) ChannelOrder {
	o := ChannelOrder{tags: s}
	for i := 0; i < len(s) && i < MaxChannels; i++ {
		o.idx[i] = int8(TagIndex(s[i]))
		o.n++
	}
	if len(s) > MaxChannels {
		o.tags = s[:MaxChannels]
	}
	return o
}

// OrderOr parses s, or fallback when s is empty.
func OrderOr(s, fallback string) ChannelOrder {
	if s == "" {
		return ParseChannelOrder(fallback)
	}
	return ParseChannelOrder(s)
}

func (o ChannelOrder) String() string { return o.tags }

// Len is the number of channels sent on the wire per pixel.
func (o ChannelOrder) Len() int { return o.n }

// Valid reports whether the order is non-empty and every tag is known.
func (o ChannelOrder) Valid() bool {
	if o.n == 0 {
		return false
	}
	for i := 0; i < o.n; i++ {
		if o.idx[i] < 0 {
			return false
		}
	}
	return true
}

// Index returns the color slot emitted at wire position i, or -1.
func (o ChannelOrder) Index(i int) int {
	if i < 0 || i >= o.n {
		return -1
	}
	return int(o.idx[i])
}

// Channel returns the value of c emitted at wire position i.
func Channel[T Component](c Color[T], o ChannelOrder, i int) T {
	s := o.Index(i)
	if s < 0 {
		return 0
	}
	return c[s]
}
