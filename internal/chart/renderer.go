package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"MineralTracker/internal/model"
)

// Mode selects the output format of a Renderer.
type Mode string

const (
	ModePNG  Mode = "png"
	ModeHTML Mode = "html"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePNG, "image", "static":
		return ModePNG, nil
	case ModeHTML, "interactive":
		return ModeHTML, nil
	default:
		return "", fmt.Errorf("unknown render mode %q", s)
	}
}

// Options control the look and location of rendered charts.
type Options struct {
	Dir                string
	Title              string
	WidthPx            int
	HeightPx           int
	DPI                int
	YPadding           float64
	ThousandsThreshold float64
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Metal and Rare Earth Prices"
	}
	if o.WidthPx <= 0 {
		o.WidthPx = 1500
	}
	if o.HeightPx <= 0 {
		o.HeightPx = 1500
	}
	if o.DPI <= 0 {
		o.DPI = 96
	}
	if o.YPadding < 0 {
		o.YPadding = 0
	}
	if o.ThousandsThreshold <= 0 {
		o.ThousandsThreshold = DefaultThousandsThreshold
	}
	return o
}

// Artifact describes one rendered file.
type Artifact struct {
	Mode  Mode
	Path  string
	Cells int
}

// Renderer draws a 3x3 chart grid for one series set and writes exactly one artifact.
type Renderer interface {
	Mode() Mode
	Render(set model.SeriesSet, ref *time.Time) (Artifact, error)
}

// New returns the renderer for mode.
func New(mode Mode, symbols []model.Symbol, opts Options) (Renderer, error) {
	opts = opts.withDefaults()
	switch mode {
	case ModePNG:
		return &PNGRenderer{symbols: symbols, opts: opts}, nil
	case ModeHTML:
		return &HTMLRenderer{symbols: symbols, opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown render mode %q", mode)
	}
}

// FileName returns the artifact name for a mode, period and optional reference date.
func FileName(mode Mode, period model.Period, ref *time.Time) string {
	return fmt.Sprintf("metal_and_rare_earth_prices_%s_%s.%s", period, model.DateTag(ref), mode)
}

// writeFile creates dir and hands an open file to write.
func writeFile(dir, name string, write func(f *os.File) error) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &model.WriteFailure{Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", &model.WriteFailure{Path: path, Err: err}
	}
	if err := write(f); err != nil {
		f.Close()
		return "", &model.WriteFailure{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &model.WriteFailure{Path: path, Err: err}
	}
	return path, nil
}
