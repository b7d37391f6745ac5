package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timeseries-dashboard/backend/internal/models"
)

// noise returns n deterministic pseudo random values in [-1, 1).
func noise(n int, seed uint32) []float64 {
	out := make([]float64, n)
	s := seed
	for i := range out {
		s = s*1664525 + 1013904223
		out[i] = float64(s>>8)/float64(1<<23) - 1
	}
	return out
}

// uniformNoise returns n values in [-0.5, 0.5) from a 64-bit LCG.
func uniformNoise(n int, seed uint64) []float64 {
	out := make([]float64, n)
	s := seed
	for i := range out {
		s = s*6364136223846793005 + 1442695040888963407
		out[i] = float64(s>>11)/float64(1<<53) - 0.5
	}
	return out
}

// integratedAR2 is a random walk whose increments follow an AR(2) process.
func integratedAR2(n int, seed uint64, a1, a2 float64) []float64 {
	e := uniformNoise(n, seed)
	out := make([]float64, n)
	level, d1, d2 := 10.0, 0.0, 0.0
	for i := range out {
		d := a1*d1 + a2*d2 + e[i]
		level += d
		out[i] = level
		d2, d1 = d1, d
	}
	return out
}

// stationaryAR2 is a zero-mean AR(2) process.
func stationaryAR2(n int, seed uint64, a1, a2 float64) []float64 {
	e := uniformNoise(n, seed)
	out := make([]float64, n)
	y1, y2 := 0.0, 0.0
	for i := range out {
		v := a1*y1 + a2*y2 + e[i]
		out[i] = v
		y2, y1 = y1, v
	}
	return out
}

func seasonalLinear(n int) []float64 {
	pattern := []float64{3, 1, -2, -4, -1, 0, 2, 4, -1, -2}
	out := make([]float64, n)
	for i := range out {
		out[i] = 10 + 0.5*float64(i) + pattern[i%10]
	}
	return out
}

func years(n, first int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = first + i
	}
	return out
}

func kindOf(t *testing.T, err error) models.ErrorKind {
	t.Helper()
	require.Error(t, err)
	return KindOf(err)
}

func TestClassify_StrictThreshold(t *testing.T) {
	tests := []struct {
		p          float64
		label      string
		stationary bool
	}{
		{0.0, models.LabelStationary, true},
		{0.049999, models.LabelStationary, true},
		{0.05, models.LabelNotStationary, false},
		{0.050001, models.LabelNotStationary, false},
		{1.0, models.LabelNotStationary, false},
	}
	for _, tt := range tests {
		label, stationary := Classify(tt.p)
		assert.Equal(t, tt.label, label, "p=%v", tt.p)
		assert.Equal(t, tt.stationary, stationary, "p=%v", tt.p)
	}
}

func TestMacKinnonPValue(t *testing.T) {
	assert.Equal(t, 1.0, MacKinnonPValue(3))
	assert.Equal(t, 0.0, MacKinnonPValue(-20))
	assert.InDelta(t, 0.05, MacKinnonPValue(-2.86), 0.003)
	assert.InDelta(t, 0.01, MacKinnonPValue(-3.43), 0.003)

	// Both polynomial branches meet at the switch point.
	below := MacKinnonPValue(tauStar)
	above := MacKinnonPValue(tauStar + 1e-9)
	assert.InDelta(t, below, above, 0.01)

	prev := 0.0
	for stat := -18.0; stat <= 2.7; stat += 0.1 {
		p := MacKinnonPValue(stat)
		assert.GreaterOrEqual(t, p, prev-1e-9, "stat=%v", stat)
		prev = p
	}
}

func TestCriticalValues(t *testing.T) {
	cv := CriticalValues(1_000_000)
	assert.InDelta(t, -3.43, cv["1%"], 0.01)
	assert.InDelta(t, -2.86, cv["5%"], 0.01)
	assert.InDelta(t, -2.57, cv["10%"], 0.01)

	small := CriticalValues(50)
	assert.Less(t, small["1%"], small["5%"])
	assert.Less(t, small["5%"], small["10%"])
	assert.Less(t, small["5%"], cv["5%"])
}

func TestADF_WhiteNoiseIsStationary(t *testing.T) {
	res, err := ADF(noise(200, 7))
	require.NoError(t, err)

	assert.Less(t, res.Statistic, -3.5)
	assert.Less(t, res.PValue, SignificanceLevel)
	assert.Equal(t, models.LabelStationary, res.Label)
	assert.True(t, res.Stationary)
	assert.Equal(t, 200-1-res.UsedLag, res.NObs)
	assert.LessOrEqual(t, res.UsedLag, 15)
	assert.Len(t, res.CriticalValues, 3)
}

func TestADF_TrendIsNotStationary(t *testing.T) {
	e := noise(100, 11)
	values := make([]float64, len(e))
	for i := range values {
		values[i] = float64(i) + 0.5*e[i]
	}

	res, err := ADF(values)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.PValue, SignificanceLevel)
	assert.Equal(t, models.LabelNotStationary, res.Label)
	assert.False(t, res.Stationary)
}

// Expected values come from an independent constant-only ADF with AIC lag selection.
func TestADF_AutolagKnownAnswers(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantLag    int
		wantNObs   int
		wantStat   float64
		wantP      float64
		wantAIC    float64
		stationary bool
	}{
		{
			name:     "integrated AR(2) selects two lagged differences",
			values:   integratedAR2(150, 42, 0.6, -0.3),
			wantLag:  2,
			wantNObs: 147,
			wantStat: -2.2867256424577436,
			wantP:    0.1762849633992876,
			wantAIC:  46.885488588025204,
		},
		{
			name:       "stationary AR(2) selects one lagged difference",
			values:     stationaryAR2(150, 42, 0.5, 0.3),
			wantLag:    1,
			wantNObs:   148,
			wantStat:   -3.364461089488357,
			wantP:      0.01223172353271278,
			wantAIC:    50.63497646182038,
			stationary: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ADF(tt.values)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLag, res.UsedLag)
			assert.Equal(t, tt.wantNObs, res.NObs)
			assert.InDelta(t, tt.wantStat, res.Statistic, 1e-6)
			assert.InDelta(t, tt.wantP, res.PValue, 1e-6)
			assert.InDelta(t, tt.wantAIC, res.AIC, 1e-6)
			assert.Equal(t, tt.stationary, res.Stationary)
		})
	}
}

func TestSelectLag(t *testing.T) {
	assert.Equal(t, 0, selectLag([]float64{1}))
	assert.Equal(t, 2, selectLag([]float64{76.1, 47.1, 46.9, 47.3}))
	assert.Equal(t, 1, selectLag([]float64{5, 3, 4, 3}))
	assert.Equal(t, 0, selectLag([]float64{2, 2, 2}))
}

func TestADF_Errors(t *testing.T) {
	_, err := ADF(nil)
	assert.Equal(t, models.ErrorKindEmptySeries, kindOf(t, err))

	_, err = ADF([]float64{4, 4, 4, 4, 4, 4})
	assert.Equal(t, models.ErrorKindConstantSeries, kindOf(t, err))

	_, err = ADF([]float64{1, 2, 4})
	assert.Equal(t, models.ErrorKindInsufficientSamples, kindOf(t, err))
	assert.Contains(t, err.Error(), "sample size is too short")
}

func TestADF_Deterministic(t *testing.T) {
	values := noise(80, 3)
	a, err := ADF(values)
	require.NoError(t, err)
	b, err := ADF(values)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDefaultLags(t *testing.T) {
	assert.Equal(t, 0, DefaultLags(0))
	assert.Equal(t, 2, DefaultLags(5))
	assert.Equal(t, 15, DefaultLags(30))
	assert.Equal(t, 21, DefaultLags(121))
}

func TestACF(t *testing.T) {
	values := noise(120, 5)
	acf, err := ACF(values, 10)
	require.NoError(t, err)

	require.Len(t, acf.Values, 11)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, acf.Lags)
	assert.InDelta(t, 1.0, acf.Values[0], 1e-12)
	assert.Equal(t, 0.0, acf.Bounds[0])
	assert.InDelta(t, 1.96/math.Sqrt(120), acf.Bounds[1], 1e-3)
	for k := 2; k < len(acf.Bounds); k++ {
		assert.GreaterOrEqual(t, acf.Bounds[k], acf.Bounds[k-1])
	}
	for _, v := range acf.Values {
		assert.LessOrEqual(t, math.Abs(v), 1.0)
	}
}

func TestACF_CapsLags(t *testing.T) {
	acf, err := ACF([]float64{1, 3, 2, 5}, 10)
	require.NoError(t, err)
	assert.Len(t, acf.Values, 4)
}

func TestPACF(t *testing.T) {
	// AR(1) with coefficient 0.7.
	e := noise(300, 9)
	values := make([]float64, len(e))
	for i := 1; i < len(values); i++ {
		values[i] = 0.7*values[i-1] + e[i]
	}

	acf, err := ACF(values, 10)
	require.NoError(t, err)
	pacf, err := PACF(values, 10)
	require.NoError(t, err)

	assert.Equal(t, 1.0, pacf.Values[0])
	assert.InDelta(t, acf.Values[1], pacf.Values[1], 1e-12)
	assert.InDelta(t, 0.7, pacf.Values[1], 0.1)
	for k := 2; k <= 10; k++ {
		assert.Less(t, math.Abs(pacf.Values[k]), 0.25, "lag %d", k)
	}
	assert.Equal(t, 0.0, pacf.Bounds[0])
	assert.InDelta(t, 1.96/math.Sqrt(300), pacf.Bounds[5], 1e-3)
}

func TestPACF_LagLimit(t *testing.T) {
	_, err := PACF(noise(20, 1), 10)
	assert.Equal(t, models.ErrorKindInsufficientSamples, kindOf(t, err))
	assert.Contains(t, err.Error(), "must be < 10")

	_, err = PACF(noise(20, 1), 9)
	assert.NoError(t, err)
}

func TestCorrelations_Errors(t *testing.T) {
	_, err := Correlations(nil)
	assert.Equal(t, models.ErrorKindEmptySeries, kindOf(t, err))

	_, err = Correlations([]float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2})
	assert.Equal(t, models.ErrorKindConstantSeries, kindOf(t, err))

	// Too short for the default lag count on the partial autocorrelation.
	_, err = Correlations(noise(30, 2))
	assert.Equal(t, models.ErrorKindInsufficientSamples, kindOf(t, err))

	res, err := Correlations(noise(40, 2))
	require.NoError(t, err)
	assert.Len(t, res.ACF.Values, DefaultLags(40)+1)
	assert.Len(t, res.PACF.Values, DefaultLags(40)+1)
}

func TestDecompose_RecoversComponents(t *testing.T) {
	values := seasonalLinear(60)
	res, err := Decompose(years(60, 1901), values, DecompositionPeriod)
	require.NoError(t, err)

	assert.Equal(t, "additive", res.Model)
	assert.Equal(t, 10, res.Period)
	assert.Equal(t, DecompositionCaption, res.Caption)
	for _, s := range [][]float64{res.Observed, res.Trend, res.Seasonal, res.Residual} {
		assert.Len(t, s, 60)
	}

	pattern := []float64{3, 1, -2, -4, -1, 0, 2, 4, -1, -2}
	for i := 0; i < 60; i++ {
		assert.InDelta(t, pattern[i%10], res.Seasonal[i], 1e-9, "seasonal %d", i)
		if i < 5 || i >= 55 {
			assert.True(t, math.IsNaN(res.Trend[i]), "trend %d", i)
			assert.True(t, math.IsNaN(res.Residual[i]), "residual %d", i)
			continue
		}
		assert.InDelta(t, 10+0.5*float64(i), res.Trend[i], 1e-9)
		assert.InDelta(t, 0, res.Residual[i], 1e-9)
	}
}

func TestDecompose_Additive(t *testing.T) {
	e := noise(121, 4)
	values := make([]float64, len(e))
	for i := range values {
		values[i] = 20 + 0.02*float64(i) + math.Sin(float64(i)) + e[i]
	}

	res, err := Decompose(years(121, 1901), values, DecompositionPeriod)
	require.NoError(t, err)

	sum := 0.0
	for p := 0; p < 10; p++ {
		sum += res.Seasonal[p]
	}
	assert.InDelta(t, 0, sum, 1e-9)

	for i, obs := range res.Observed {
		if math.IsNaN(res.Trend[i]) {
			continue
		}
		assert.InDelta(t, obs, res.Trend[i]+res.Seasonal[i]+res.Residual[i], 1e-9)
	}
	for i := 10; i < len(res.Seasonal); i++ {
		assert.Equal(t, res.Seasonal[i-10], res.Seasonal[i])
	}
}

func TestDecompose_Errors(t *testing.T) {
	_, err := Decompose(nil, nil, DecompositionPeriod)
	assert.Equal(t, models.ErrorKindEmptySeries, kindOf(t, err))

	_, err = Decompose(years(5, 2017), []float64{1, 2, 3, 4, 5}, DecompositionPeriod)
	assert.Equal(t, models.ErrorKindInsufficientSamples, kindOf(t, err))
	assert.Contains(t, err.Error(), "requires 20 observations")
	assert.Contains(t, err.Error(), "only has 5 observation(s)")

	_, err = Decompose(years(19, 2000), noise(19, 1), DecompositionPeriod)
	assert.Equal(t, models.ErrorKindInsufficientSamples, kindOf(t, err))

	_, err = Decompose(years(20, 2000), noise(20, 1), DecompositionPeriod)
	assert.NoError(t, err)
}
