// Package pattern paints diagnostic and demo frames onto a bus.
package pattern

import (
	"fmt"
	"math"

	"github.com/coreman2200/pixelbus/internal/bus"
	"github.com/coreman2200/pixelbus/internal/color"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	PanelSweep Kind = "panel_sweep"
	Rainbow    Kind = "rainbow"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case None, IndexSweep, RGBTest, PanelSweep, Rainbow:
		return k, nil
	}
	return None, fmt.Errorf("unknown pattern %q", s)
}

type Plan struct {
	Kind Kind
	// PanelSize is the pixel count of one panel for PanelSweep. Zero treats
	// the whole bus as one panel.
	PanelSize int
	// Brightness scales every pattern, 0..1. Zero means full.
	Brightness float64
}

type Runner struct {
	plan  Plan
	step  int
	phase float64
	frame []color.Color8
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

func (r *Runner) level() float64 {
	if r.plan.Brightness <= 0 || r.plan.Brightness > 1 {
		return 1
	}
	return r.plan.Brightness
}

// Step paints the next frame onto b; returns false when complete.
func (r *Runner) Step(b bus.Bus[uint8]) bool {
	n := b.PixelCount()
	v := uint8(255 * r.level())

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		b.ClearTo(color.Color8{})
		b.SetPixelColor(r.step, color.RGBW(v, v, v, v))
	case RGBTest:
		var c color.Color8
		c[r.step%4] = v // R, G, B, W in turn
		b.ClearTo(c)
	case PanelSweep:
		per := r.plan.PanelSize
		if per <= 0 {
			per = n
		}
		if per == 0 || r.step*per >= n {
			return false
		}
		b.ClearTo(color.Color8{})
		for i := r.step * per; i < (r.step+1)*per && i < n; i++ {
			b.SetPixelColor(i, color.RGB(0, v, v)) // cyan
		}
	case Rainbow:
		if cap(r.frame) < n {
			r.frame = make([]color.Color8, n)
		}
		f := r.frame[:n]
		for i := range f {
			h := math.Mod(float64(i)/float64(n)+r.phase, 1.0)
			cr, cg, cb := hsvToRGB(h, 1.0, r.level())
			f[i] = color.RGB(uint8(cr*255), uint8(cg*255), uint8(cb*255))
		}
		b.SetPixelColors(0, f)
		r.phase += 0.01
	default:
		return false
	}
	r.step++
	return true
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)
	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
