// Package chart renders the dashboard figures with gonum/plot.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/timeseries-dashboard/backend/internal/models"
)

// Format is an image encoding supported by the renderer.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat maps a query value to a Format. The empty string means PNG.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Renderer draws figures using one theme.
type Renderer struct {
	theme *Theme
}

func NewRenderer(theme *Theme) *Renderer {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Renderer{theme: theme}
}

// SeriesTitle is "<column> (<first year>–<last year>)", or just the column
// name when the series is empty.
func SeriesTitle(s *models.Series) string {
	first, last, ok := s.Span()
	if !ok {
		return s.Name
	}
	return fmt.Sprintf("%s (%d–%d)", s.Name, first, last)
}

// Series draws the selected series as a single line chart.
func (r *Renderer) Series(w io.Writer, s *models.Series, format Format) error {
	if s == nil {
		s = &models.Series{}
	}
	style := r.theme.Series

	p := plot.New()
	p.Title.Text = SeriesTitle(s)
	p.X.Label.Text = style.XLabel
	p.Y.Label.Text = style.YLabel
	p.Add(plotter.NewGrid())

	if err := r.addLine(p, s.Years, s.Values, parseColor(style.Color)); err != nil {
		return err
	}

	return r.write(w, []*plot.Plot{p}, style.Height, format)
}

// Correlation draws the ACF above the PACF as stem charts with shaded
// confidence bands.
func (r *Renderer) Correlation(w io.Writer, c *models.CorrelationResult, format Format) error {
	style := r.theme.Correlation
	stemColor := parseColor(style.Color)
	bandColor := parseColor(style.Band)

	plots := make([]*plot.Plot, 0, 2)
	for i, cg := range []models.Correlogram{c.ACF, c.PACF} {
		p := plot.New()
		p.Title.Text = style.Panels[i].Title
		p.Y.Min, p.Y.Max = -1.1, 1.1
		if err := addCorrelogram(p, cg, stemColor, bandColor, r.lineWidth()); err != nil {
			return err
		}
		plots = append(plots, p)
	}
	return r.write(w, plots, style.Height, format)
}

// Decomposition draws observed, trend, seasonal and residual components as four
// panels sharing the year axis. Undefined trend and residual points are left out.
func (r *Renderer) Decomposition(w io.Writer, d *models.DecompositionResult, format Format) error {
	style := r.theme.Decomposition
	components := [][]float64{d.Observed, d.Trend, d.Seasonal, d.Residual}

	plots := make([]*plot.Plot, 0, len(components))
	for i, values := range components {
		p := plot.New()
		p.Title.Text = style.Panels[i].Title
		if err := r.addLine(p, d.Years, values, parseColor(style.Panels[i].Color)); err != nil {
			return err
		}
		if len(d.Years) > 0 {
			p.X.Min = float64(d.Years[0])
			p.X.Max = float64(d.Years[len(d.Years)-1])
		}
		if i < len(components)-1 {
			p.HideX()
		}
		plots = append(plots, p)
	}
	return r.write(w, plots, style.Height, format)
}

func (r *Renderer) lineWidth() vg.Length {
	return vg.Points(r.theme.LineWidth)
}

// addLine plots (year, value) pairs, one line per run of finite values.
func (r *Renderer) addLine(p *plot.Plot, years []int, values []float64, c color.Color) error {
	for _, seg := range finiteSegments(years, values) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return fmt.Errorf("failed to build line: %w", err)
		}
		line.Color = c
		line.Width = r.lineWidth()
		p.Add(line)
	}
	return nil
}

func finiteSegments(years []int, values []float64) []plotter.XYs {
	var segments []plotter.XYs
	var cur plotter.XYs
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if len(cur) > 0 {
				segments = append(segments, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(years[i]), Y: v})
	}
	if len(cur) > 0 {
		segments = append(segments, cur)
	}
	return segments
}

func addCorrelogram(p *plot.Plot, cg models.Correlogram, stem, band color.Color, width vg.Length) error {
	n := len(cg.Lags)
	if n == 0 {
		return nil
	}

	// Band from lag 1 upward; lag 0 has zero width.
	poly := make(plotter.XYs, 0, 2*n)
	for i := 0; i < n; i++ {
		poly = append(poly, plotter.XY{X: float64(cg.Lags[i]), Y: cg.Bounds[i]})
	}
	for i := n - 1; i >= 0; i-- {
		poly = append(poly, plotter.XY{X: float64(cg.Lags[i]), Y: -cg.Bounds[i]})
	}
	area, err := plotter.NewPolygon(poly)
	if err != nil {
		return fmt.Errorf("failed to build confidence band: %w", err)
	}
	area.Color = band
	area.LineStyle.Width = 0
	p.Add(area)

	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: float64(cg.Lags[n-1]), Y: 0}})
	if err != nil {
		return err
	}
	zero.Color = color.Gray{Y: 96}
	zero.Width = vg.Points(0.5)
	p.Add(zero)

	tips := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		x := float64(cg.Lags[i])
		tips[i] = plotter.XY{X: x, Y: cg.Values[i]}
		stemLine, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: cg.Values[i]}})
		if err != nil {
			return fmt.Errorf("failed to build stem at lag %d: %w", cg.Lags[i], err)
		}
		stemLine.Color = stem
		stemLine.Width = width
		p.Add(stemLine)
	}

	marks, err := plotter.NewScatter(tips)
	if err != nil {
		return fmt.Errorf("failed to build markers: %w", err)
	}
	marks.GlyphStyle.Shape = draw.CircleGlyph{}
	marks.GlyphStyle.Radius = vg.Points(3)
	marks.GlyphStyle.Color = stem
	p.Add(marks)

	p.X.Min = -0.5
	p.X.Max = float64(cg.Lags[n-1]) + 0.5
	return nil
}

// write lays out plots top to bottom on one canvas of the theme width.
func (r *Renderer) write(w io.Writer, plots []*plot.Plot, height float64, format Format) error {
	width := vg.Length(r.theme.Width) * vg.Inch
	c, err := draw.NewFormattedCanvas(width, vg.Length(height)*vg.Inch, string(format))
	if err != nil {
		return fmt.Errorf("failed to create %s canvas: %w", format, err)
	}

	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadTop:    vg.Points(6),
		PadBottom: vg.Points(6),
		PadLeft:   vg.Points(6),
		PadRight:  vg.Points(12),
		PadY:      vg.Points(10),
	}
	canvases := plot.Align(grid, tiles, draw.New(c))
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode %s chart: %w", format, err)
	}
	return nil
}
