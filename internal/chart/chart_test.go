package chart

import (
	"bytes"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timeseries-dashboard/backend/internal/analysis"
	"github.com/timeseries-dashboard/backend/internal/models"
	"github.com/timeseries-dashboard/backend/internal/testutil"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func temperatureSeries() *models.Series {
	values := testutil.TemperatureValues()
	years := make([]int, len(values))
	for i := range years {
		years[i] = 1901 + i
	}
	return &models.Series{Name: "TEMP", Years: years, Values: values}
}

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	assert.Equal(t, "Year", theme.Series.XLabel)
	assert.Equal(t, "Value", theme.Series.YLabel)
	require.Len(t, theme.Decomposition.Panels, 4)
	titles := make([]string, 4)
	for i, p := range theme.Decomposition.Panels {
		titles[i] = p.Title
	}
	assert.Equal(t, []string{"Original Series", "Trend", "Seasonality", "Irregular (Residuals)"}, titles)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}, parseColor(theme.Decomposition.Panels[1].Color))
}

func TestLoadTheme_Invalid(t *testing.T) {
	_, err := LoadTheme([]byte("width: [1"))
	assert.Error(t, err)

	_, err = LoadTheme([]byte("width: 10\nseries: {height: 4}\ncorrelation: {height: 6}\ndecomposition: {height: 8}\n"))
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, parseColor("#1f77b4"))
	assert.Equal(t, color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x33}, parseColor("#1f77b433"))
	assert.Equal(t, color.Black, parseColor("blue"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	assert.Equal(t, "image/png", f.ContentType())

	f, err = ParseFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestSeriesTitle(t *testing.T) {
	assert.Equal(t, "TEMP (1901–2021)", SeriesTitle(temperatureSeries()))
	assert.Equal(t, "TEMP", SeriesTitle(&models.Series{Name: "TEMP"}))
}

func TestRenderer_Series(t *testing.T) {
	r := NewRenderer(nil)

	var buf bytes.Buffer
	require.NoError(t, r.Series(&buf, temperatureSeries(), FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, r.Series(&buf, temperatureSeries(), FormatSVG))
	assert.True(t, strings.Contains(buf.String(), "<svg"))
}

func TestRenderer_EmptySeries(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(nil).Series(&buf, &models.Series{Name: "TEMP"}, FormatPNG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderer_Correlation(t *testing.T) {
	res, err := analysis.Correlations(temperatureSeries().Values)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(nil).Correlation(&buf, res, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderer_Decomposition(t *testing.T) {
	s := temperatureSeries()
	res, err := analysis.Decompose(s.Years, s.Values, analysis.DecompositionPeriod)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(nil).Decomposition(&buf, res, FormatSVG))
	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Seasonality")
}

func TestFiniteSegments(t *testing.T) {
	nan := math.NaN()
	segs := finiteSegments([]int{1, 2, 3, 4, 5, 6}, []float64{nan, 1, 2, nan, 3, nan})
	require.Len(t, segs, 2)
	assert.Len(t, segs[0], 2)
	assert.Len(t, segs[1], 1)
	assert.Equal(t, 5.0, segs[1][0].X)
}
