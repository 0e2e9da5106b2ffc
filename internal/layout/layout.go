// Package layout maps 2-D panel coordinates onto the linear wiring order of
// an LED matrix.
package layout

import (
	"fmt"
	"strings"
)

// PanelLayout is one of 16 wiring patterns: four base families, each in four
// rotations. The value encodes family*4 + rotation step.
type PanelLayout uint8

const (
	RowMajor PanelLayout = iota
	RowMajor90
	RowMajor180
	RowMajor270
	RowMajorAlternating
	RowMajorAlternating90
	RowMajorAlternating180
	RowMajorAlternating270
	ColumnMajor
	ColumnMajor90
	ColumnMajor180
	ColumnMajor270
	ColumnMajorAlternating
	ColumnMajorAlternating90
	ColumnMajorAlternating180
	ColumnMajorAlternating270

	numLayouts
)

var names = [numLayouts]string{
	"row_major", "row_major_90", "row_major_180", "row_major_270",
	"row_major_alternating", "row_major_alternating_90", "row_major_alternating_180", "row_major_alternating_270",
	"column_major", "column_major_90", "column_major_180", "column_major_270",
	"column_major_alternating", "column_major_alternating_90", "column_major_alternating_180", "column_major_alternating_270",
}

func (l PanelLayout) String() string {
	if l >= numLayouts {
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
	return names[l]
}

// Parse accepts the snake_case names used by String; an empty name is
// RowMajor.
func Parse(s string) (PanelLayout, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RowMajor, nil
	}
	for i, n := range names {
		if n == s {
			return PanelLayout(i), nil
		}
	}
	return RowMajor, fmt.Errorf("unknown panel layout %q", s)
}

// All returns every layout in declaration order.
func All() []PanelLayout {
	out := make([]PanelLayout, numLayouts)
	for i := range out {
		out[i] = PanelLayout(i)
	}
	return out
}

func (l PanelLayout) family() PanelLayout { return l &^ 3 }
func (l PanelLayout) rotation() int       { return int(l & 3) }

// Rotate returns the same family turned by steps quarter turns.
func (l PanelLayout) Rotate(steps int) PanelLayout {
	r := ((l.rotation()+steps)%4 + 4) % 4
	return l.family() | PanelLayout(r)
}

// Map returns the linear index of (x, y) on a width x height panel wired as l.
// Callers guarantee 0 <= x < width and 0 <= y < height.
func Map(l PanelLayout, width, height, x, y int) int {
	mx := width - 1 - x
	my := height - 1 - y
	switch l {
	case RowMajor:
		return x + y*width
	case RowMajor90:
		return mx*height + y
	case RowMajor180:
		return mx + my*width
	case RowMajor270:
		return x*height + my

	case RowMajorAlternating:
		if y&1 == 1 {
			return y*width + mx
		}
		return y*width + x
	case RowMajorAlternating90:
		if mx&1 == 1 {
			return mx*height + my
		}
		return mx*height + y
	case RowMajorAlternating180:
		if my&1 == 1 {
			return my*width + x
		}
		return my*width + mx
	case RowMajorAlternating270:
		if x&1 == 1 {
			return x*height + y
		}
		return x*height + my

	case ColumnMajor:
		return x*height + y
	case ColumnMajor90:
		return mx + y*width
	case ColumnMajor180:
		return mx*height + my
	case ColumnMajor270:
		return x + my*width

	case ColumnMajorAlternating:
		if x&1 == 1 {
			return x*height + my
		}
		return x*height + y
	case ColumnMajorAlternating90:
		if y&1 == 1 {
			return y*width + x
		}
		return y*width + mx
	case ColumnMajorAlternating180:
		if mx&1 == 1 {
			return mx*height + y
		}
		return mx*height + my
	case ColumnMajorAlternating270:
		if my&1 == 1 {
			return my*width + mx
		}
		return my*width + x
	}
	return x + y*width
}

// TilePreferred returns the layout a panel at tile (tileX, tileY) should be
// addressed with so that identically wired panels can sit in a serpentine
// tile grid. Even/even keeps base; odd column adds 270, odd row adds 90, and
// odd/odd adds 180 degrees.
func TilePreferred(base PanelLayout, tileX, tileY int) PanelLayout {
	return base.Rotate(tileSteps[tileY&1][tileX&1])
}

// quarter turns indexed by [row parity][column parity]
var tileSteps = [2][2]int{
	{0, 3},
	{1, 2},
}
