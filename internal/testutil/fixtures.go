// fixtures.go - CSV fixtures shared by package tests
package testutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// YearlyCSV builds a two-column CSV with header "YEAR,<column>" and n rows
// starting at firstYear. cell returns the raw text of row i.
func YearlyCSV(column string, firstYear, n int, cell func(i int) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "YEAR,%s\n", column)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,%s\n", firstYear+i, cell(i))
	}
	return b.String()
}

// TemperatureValue is a deterministic yearly temperature: slow warming trend,
// a ten year cycle and bounded pseudo noise.
func TemperatureValue(i int) float64 {
	noise := float64((i*7919)%23-11) / 40
	return 24 + 0.01*float64(i) + 0.3*math.Sin(2*math.Pi*float64(i)/10) + noise
}

// TemperatureCSV returns the 1901-2021 YEAR,TEMP fixture (121 rows).
func TemperatureCSV() string {
	return YearlyCSV("TEMP", 1901, 121, func(i int) string {
		return fmt.Sprintf("%.3f", TemperatureValue(i))
	})
}

// TemperatureValues returns the values of TemperatureCSV as parsed back from text.
func TemperatureValues() []float64 {
	out := make([]float64, 121)
	for i := range out {
		out[i], _ = strconv.ParseFloat(fmt.Sprintf("%.3f", TemperatureValue(i)), 64)
	}
	return out
}

// NonNumericCSV returns a YEAR,TEMP file whose TEMP column holds only text.
func NonNumericCSV(n int) string {
	return YearlyCSV("TEMP", 1901, n, func(i int) string {
		return fmt.Sprintf("warm-%d", i)
	})
}

// ShortCSV returns a five row YEAR,TEMP file.
func ShortCSV() string {
	return YearlyCSV("TEMP", 2017, 5, func(i int) string {
		return fmt.Sprintf("%.1f", 25+0.4*float64(i)+float64(i%2)*0.3)
	})
}
