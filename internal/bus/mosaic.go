package bus

import (
	"errors"
	"fmt"

	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/layout"
)

// MosaicConfig describes how equally sized panels tile a grid.
type MosaicConfig struct {
	PanelWidth  int
	PanelHeight int
	TilesWide   int
	TilesHigh   int
	// PanelLayout is how pixels are wired inside each panel.
	PanelLayout layout.PanelLayout
	// TileLayout is how the panels are chained across the grid.
	TileLayout layout.PanelLayout
	// Rotate addresses alternating tiles through a rotated panel layout so
	// a serpentine tile chain can use identically wired panels.
	Rotate bool
}

// MosaicBus arranges panel buses into a 2-D grid. Linear indexes walk the
// panels in construction order; XY access goes through the tile and panel
// layouts. Panels are borrowed and must outlive the mosaic.
type MosaicBus[T color.Component] struct {
	cfg    MosaicConfig
	panels []Bus[T]
	per    int
}

func NewMosaicBus[T color.Component](cfg MosaicConfig, panels ...Bus[T]) (*MosaicBus[T], error) {
	if cfg.PanelWidth <= 0 || cfg.PanelHeight <= 0 || cfg.TilesWide <= 0 || cfg.TilesHigh <= 0 {
		return nil, fmt.Errorf("%w: panel %dx%d, tiles %dx%d", ErrInvalidDimensions,
			cfg.PanelWidth, cfg.PanelHeight, cfg.TilesWide, cfg.TilesHigh)
	}
	if len(panels) > cfg.TilesWide*cfg.TilesHigh {
		return nil, fmt.Errorf("%w: %d panels for %d tiles", ErrInvalidDimensions, len(panels), cfg.TilesWide*cfg.TilesHigh)
	}
	return &MosaicBus[T]{cfg: cfg, panels: panels, per: cfg.PanelWidth * cfg.PanelHeight}, nil
}

func (m *MosaicBus[T]) Width() int           { return m.cfg.PanelWidth * m.cfg.TilesWide }
func (m *MosaicBus[T]) Height() int          { return m.cfg.PanelHeight * m.cfg.TilesHigh }
func (m *MosaicBus[T]) Config() MosaicConfig { return m.cfg }
func (m *MosaicBus[T]) PixelCount() int      { return len(m.panels) * m.per }

// LocateXY returns the panel and its local index holding pixel (x, y).
func (m *MosaicBus[T]) LocateXY(x, y int) (panel, local int, ok bool) {
	if x < 0 || y < 0 || x >= m.Width() || y >= m.Height() {
		return 0, 0, false
	}
	c := m.cfg
	tx, lx := x/c.PanelWidth, x%c.PanelWidth
	ty, ly := y/c.PanelHeight, y%c.PanelHeight

	panel = layout.Map(c.TileLayout, c.TilesWide, c.TilesHigh, tx, ty)
	if panel >= len(m.panels) {
		return 0, 0, false
	}
	pl := c.PanelLayout
	if c.Rotate {
		pl = layout.TilePreferred(pl, tx, ty)
	}
	return panel, layout.Map(pl, c.PanelWidth, c.PanelHeight, lx, ly), true
}

// Locate returns the panel and local index of linear index g.
func (m *MosaicBus[T]) Locate(g int) (panel, local int, ok bool) {
	if g < 0 || g >= m.PixelCount() {
		return 0, 0, false
	}
	return g / m.per, g % m.per, true
}

func (m *MosaicBus[T]) SetPixelColorXY(x, y int, c color.Color[T]) {
	if p, l, ok := m.LocateXY(x, y); ok {
		m.panels[p].SetPixelColor(l, c)
	}
}

func (m *MosaicBus[T]) PixelColorXY(x, y int) color.Color[T] {
	if p, l, ok := m.LocateXY(x, y); ok {
		return m.panels[p].PixelColor(l)
	}
	return color.Color[T]{}
}

func (m *MosaicBus[T]) SetPixelColor(g int, c color.Color[T]) {
	if p, l, ok := m.Locate(g); ok {
		m.panels[p].SetPixelColor(l, c)
	}
}

func (m *MosaicBus[T]) PixelColor(g int) color.Color[T] {
	if p, l, ok := m.Locate(g); ok {
		return m.panels[p].PixelColor(l)
	}
	return color.Color[T]{}
}

func (m *MosaicBus[T]) SetPixelColors(offset int, src []color.Color[T]) int {
	n := 0
	for ; n < len(src); n++ {
		p, l, ok := m.Locate(offset + n)
		if !ok {
			break
		}
		m.panels[p].SetPixelColor(l, src[n])
	}
	return n
}

func (m *MosaicBus[T]) PixelColors(offset int, dst []color.Color[T]) int {
	n := 0
	for ; n < len(dst); n++ {
		p, l, ok := m.Locate(offset + n)
		if !ok {
			break
		}
		dst[n] = m.panels[p].PixelColor(l)
	}
	return n
}

func (m *MosaicBus[T]) ClearTo(c color.Color[T]) {
	for _, p := range m.panels {
		p.ClearTo(c)
	}
}

func (m *MosaicBus[T]) Begin() error {
	var errs []error
	for _, p := range m.panels {
		errs = append(errs, p.Begin())
	}
	return errors.Join(errs...)
}

func (m *MosaicBus[T]) Show() error {
	var errs []error
	for _, p := range m.panels {
		errs = append(errs, p.Show())
	}
	return errors.Join(errs...)
}

func (m *MosaicBus[T]) CanShow() bool {
	for _, p := range m.panels {
		if !p.CanShow() {
			return false
		}
	}
	return true
}
