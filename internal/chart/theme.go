package chart

import (
	_ "embed"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed theme.yaml
var defaultThemeYAML []byte

// Theme holds chart sizes, titles and colors.
type Theme struct {
	Width         float64     `yaml:"width"`
	LineWidth     float64     `yaml:"lineWidth"`
	Series        SeriesStyle `yaml:"series"`
	Correlation   StackStyle  `yaml:"correlation"`
	Decomposition StackStyle  `yaml:"decomposition"`
}

type SeriesStyle struct {
	Height float64 `yaml:"height"`
	Color  string  `yaml:"color"`
	XLabel string  `yaml:"xLabel"`
	YLabel string  `yaml:"yLabel"`
}

// StackStyle describes a figure made of vertically stacked panels.
type StackStyle struct {
	Height float64      `yaml:"height"`
	Color  string       `yaml:"color"`
	Band   string       `yaml:"band"`
	Panels []PanelStyle `yaml:"panels"`
}

type PanelStyle struct {
	Title string `yaml:"title"`
	Color string `yaml:"color"`
}

// LoadTheme parses a YAML theme and checks that every figure has the panels
// the renderers draw.
func LoadTheme(data []byte) (*Theme, error) {
	var t Theme
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse chart theme: %w", err)
	}
	if t.Width <= 0 || t.Series.Height <= 0 || t.Correlation.Height <= 0 || t.Decomposition.Height <= 0 {
		return nil, fmt.Errorf("chart theme: sizes must be positive")
	}
	if len(t.Correlation.Panels) != 2 {
		return nil, fmt.Errorf("chart theme: correlation needs 2 panels, got %d", len(t.Correlation.Panels))
	}
	if len(t.Decomposition.Panels) != 4 {
		return nil, fmt.Errorf("chart theme: decomposition needs 4 panels, got %d", len(t.Decomposition.Panels))
	}
	if t.LineWidth <= 0 {
		t.LineWidth = 1
	}
	return &t, nil
}

// DefaultTheme returns the embedded theme.
func DefaultTheme() *Theme {
	t, err := LoadTheme(defaultThemeYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// parseColor reads "#rrggbb" or "#rrggbbaa". Anything else is black.
func parseColor(s string) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.Black
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
