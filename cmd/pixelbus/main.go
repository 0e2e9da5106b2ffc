package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/pixelbus/internal/bus"
	"github.com/coreman2200/pixelbus/internal/color"
	"github.com/coreman2200/pixelbus/internal/config"
	"github.com/coreman2200/pixelbus/internal/pattern"
)

const defaultFPS = 30

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		fps        = flag.Int("fps", defaultFPS, "target frames per second")
		brightness = flag.Float64("brightness", 0, "pattern brightness 0..1 (0 keeps config)")
		pat        = flag.String("pattern", "", "index_sweep | rgb_channels | panel_sweep | rainbow")
		frames     = flag.Int("frames", 0, "stop after this many frames (0 runs until signalled)")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}

	// flags set explicitly win over config
	eFPS := firstNonZero(cfg.FPS, *fps)
	eBright := cfg.Brightness
	ePattern := cfg.Pattern
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fps":
			eFPS = *fps
		case "brightness":
			eBright = *brightness
		case "pattern":
			ePattern = *pat
		}
	})
	kind, err := pattern.ParseKind(ePattern)
	if err != nil {
		log.Fatal().Err(err).Msg("bad pattern")
	}
	if kind == pattern.None {
		kind = pattern.Rainbow
	}

	if !*simOnly {
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Msg("periph host init failed; using simulated transports")
			*simOnly = true
		}
	}

	rig, err := config.Build(cfg, config.Options{SimOnly: *simOnly})
	if err != nil {
		log.Fatal().Err(err).Msg("build failed")
	}
	defer func() {
		if err := rig.Close(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}()
	if err := begin(rig.Bus, rig); err != nil {
		log.Error().Err(err).Msg("begin failed")
		os.Exit(1)
	}

	plan := pattern.Plan{Kind: kind, Brightness: eBright}
	if rig.Mosaic != nil {
		c := rig.Mosaic.Config()
		plan.PanelSize = c.PanelWidth * c.PanelHeight
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("pixels", rig.Bus.PixelCount()).
		Int("fps", eFPS).
		Str("pattern", string(kind)).
		Bool("sim", *simOnly).
		Msg("running")
	shown := run(ctx, rig.Bus, pattern.NewRunner(plan), eFPS, *frames)
	log.Info().Int("frames", shown).Msg("shutting down")

	rig.Bus.ClearTo(color.Color8{})
	if err := rig.Bus.Show(); err != nil {
		log.Warn().Err(err).Msg("blank on exit failed")
	}
}

// begin starts the bus and closes the rig when it cannot; os.Exit would skip
// the deferred Close.
func begin(b interface{ Begin() error }, c io.Closer) error {
	err := b.Begin()
	if err == nil {
		return nil
	}
	if cerr := c.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("close failed")
	}
	return err
}

// run paints and shows frames at fps until ctx ends, the pattern completes
// or limit frames have been shown. It returns the number of frames shown.
func run(ctx context.Context, b bus.Bus[uint8], r *pattern.Runner, fps, limit int) int {
	if fps <= 0 {
		fps = defaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	shown := 0
	for limit <= 0 || shown < limit {
		select {
		case <-ctx.Done():
			return shown
		case <-ticker.C:
		}
		if !b.CanShow() {
			continue
		}
		if !r.Step(b) {
			return shown
		}
		if err := b.Show(); err != nil {
			log.Error().Err(err).Int("frame", shown).Msg("show failed")
			continue
		}
		shown++
	}
	return shown
}

func firstNonZero(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
