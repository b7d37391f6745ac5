package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/timeseries-dashboard/backend/internal/models"
)

// DecompositionPeriod is the fixed seasonal period, in observations.
const DecompositionPeriod = 10

// DecompositionCaption explains the four components under the decomposition chart.
const DecompositionCaption = "Trend: long-term movement or direction in the data. " +
	"Seasonality: regular, repeating pattern (e.g., yearly temperature variation). " +
	"Cyclic: longer-term fluctuations (captured partly in trend if no fixed period). " +
	"Irregular (Residual): random noise or unexplained variation."

// Decompose splits values into trend, seasonal and residual parts with the classical
// additive model observed = trend + seasonal + residual.
//
// The trend is a centered moving average over one period (a 2xperiod average when
// the period is even) and is undefined (NaN) for the first and last period/2
// points. The seasonal part is the mean detrended value of each position in the
// cycle, shifted to sum to zero, repeated over the series.
func Decompose(years []int, values []float64, period int) (*models.DecompositionResult, error) {
	n := len(values)
	if n == 0 {
		return nil, errEmpty()
	}
	if period < 2 {
		return nil, newError(numerical, "period must be at least 2, got %d", period)
	}
	if n < 2*period {
		return nil, newError(models.ErrorKindInsufficientSamples,
			"x must have 2 complete cycles requires %d observations. x only has %d observation(s)",
			2*period, n)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, newError(numerical, "decomposition does not handle missing values")
		}
	}

	trend := movingAverage(values, period)

	detrended := make([]float64, n)
	floats.SubTo(detrended, values, trend)

	means := make([]float64, period)
	for p := 0; p < period; p++ {
		sum, count := 0.0, 0
		for i := p; i < n; i += period {
			if !math.IsNaN(detrended[i]) {
				sum += detrended[i]
				count++
			}
		}
		means[p] = sum / float64(count)
	}
	floats.AddConst(-floats.Sum(means)/float64(period), means)

	seasonal := make([]float64, n)
	for i := range seasonal {
		seasonal[i] = means[i%period]
	}

	resid := make([]float64, n)
	floats.SubTo(resid, detrended, seasonal)

	return &models.DecompositionResult{
		Model:    "additive",
		Period:   period,
		Years:    append([]int(nil), years...),
		Observed: append([]float64(nil), values...),
		Trend:    trend,
		Seasonal: seasonal,
		Residual: resid,
		Caption:  DecompositionCaption,
	}, nil
}

// movingAverage applies the centered convolution filter used for the trend.
// Positions the filter does not fully cover are NaN.
func movingAverage(values []float64, period int) []float64 {
	var weights []float64
	if period%2 == 0 {
		weights = make([]float64, period+1)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
		weights[0] /= 2
		weights[period] /= 2
	} else {
		weights = make([]float64, period)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
	}

	half := len(weights) / 2
	out := make([]float64, len(values))
	for i := range out {
		if i < half || i+half >= len(values) {
			out[i] = math.NaN()
			continue
		}
		out[i] = floats.Dot(weights, values[i-half:i+half+1])
	}
	return out
}
