package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Transport struct {
	Kind    string `yaml:"kind"`               // "spi" | "nrz" | "console" | "sim"
	Dev     string `yaml:"dev,omitempty"`      // e.g. /dev/spidev0.0 or SPI0.0
	SpeedHz int    `yaml:"speed_hz,omitempty"` // 0 derives from timing
	Invert  bool   `yaml:"invert,omitempty"`
	// Timing names a one-wire preset used when a one-wire protocol runs over
	// a clocked transport.
	Timing string `yaml:"timing,omitempty"`
}

type Currents struct {
	R uint16 `yaml:"r"`
	G uint16 `yaml:"g"`
	B uint16 `yaml:"b"`
	W uint16 `yaml:"w"`
}

type Tlc59711 struct {
	OutTmg *bool `yaml:"outtmg,omitempty"`
	ExtGck *bool `yaml:"extgck,omitempty"`
	TmgRst *bool `yaml:"tmgrst,omitempty"`
	DspRpt *bool `yaml:"dsprpt,omitempty"`
	Blank  *bool `yaml:"blank,omitempty"`
	// Brightness is R, G, B global brightness, 0..127.
	Brightness []uint8 `yaml:"brightness,omitempty"`
}

type Protocol struct {
	Name         string `yaml:"name"`
	ChannelOrder string `yaml:"channel_order,omitempty"`

	Wide        bool      `yaml:"wide,omitempty"`         // ws2812x
	DotStarMode string    `yaml:"dotstar_mode,omitempty"` // "fixed" | "luminance"
	TailFill    string    `yaml:"tail_fill,omitempty"`    // tlc5947: "zero" | "repeat_first" | "repeat_last"
	Tlc59711    *Tlc59711 `yaml:"tlc59711,omitempty"`
	Currents    *Currents `yaml:"currents,omitempty"`    // tm1814, tenths of mA
	Tm1914Mode  string    `yaml:"tm1914_mode,omitempty"` // "auto" | "din" | "fdin"
	Gains       []uint8   `yaml:"gains,omitempty"`       // sm168x, per wire position
}

type Strip struct {
	Name      string    `yaml:"name"`
	Pixels    int       `yaml:"pixels"`
	Protocol  Protocol  `yaml:"protocol"`
	Transport Transport `yaml:"transport"`
}

type Mosaic struct {
	PanelWidth  int    `yaml:"panel_width"`
	PanelHeight int    `yaml:"panel_height"`
	TilesWide   int    `yaml:"tiles_wide"`
	TilesHigh   int    `yaml:"tiles_high"`
	PanelLayout string `yaml:"panel_layout,omitempty"`
	TileLayout  string `yaml:"tile_layout,omitempty"`
	Rotate      bool   `yaml:"rotate,omitempty"`
}

type Segment struct {
	Name   string `yaml:"name"`
	Offset int    `yaml:"offset"`
	Length int    `yaml:"length"`
}

type Layout struct {
	Kind     string    `yaml:"kind"` // "single" | "concat" | "mosaic"
	Strips   []string  `yaml:"strips,omitempty"`
	Mosaic   Mosaic    `yaml:"mosaic,omitempty"`
	Segments []Segment `yaml:"segments,omitempty"`
}

type Config struct {
	FPS        int     `yaml:"fps"`
	Brightness float64 `yaml:"brightness"`
	Pattern    string  `yaml:"pattern"`

	Strips []Strip `yaml:"strips"`
	Layout Layout  `yaml:"layout"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Strip returns the strip called name.
func (c *Config) Strip(name string) (Strip, bool) {
	for _, s := range c.Strips {
		if s.Name == name {
			return s, true
		}
	}
	return Strip{}, false
}
