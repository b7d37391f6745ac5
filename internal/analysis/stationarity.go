package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/timeseries-dashboard/backend/internal/models"
)

// SignificanceLevel is the p-value below which a series is called stationary.
const SignificanceLevel = 0.05

// MacKinnon (2010) response surface for the constant-only regression with one
// variable. Coefficients are listed from the constant term upwards.
var (
	tauMax      = 2.74
	tauMin      = -18.83
	tauStar     = -1.61
	tauSmallP   = []float64{2.1659, 1.4412, 0.038269}
	tauLargeP   = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	tauCritical = map[string][]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.040},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
)

// ADF runs the augmented Dickey-Fuller unit root test with a constant term.
// The lag order is chosen by AIC among 0..maxlag on a common sample, where
// maxlag = ceil(12*(n/100)^(1/4)) capped at n/2-2, and the regression is then
// re-estimated at the chosen lag.
//
// The null hypothesis is a unit root; a p-value below SignificanceLevel
// suggests the series is stationary.
func ADF(values []float64) (*models.StationarityResult, error) {
	n := len(values)
	if n == 0 {
		return nil, errEmpty()
	}
	if isConstant(values) {
		return nil, errConstant()
	}

	maxlag := int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	if limit := n/2 - 2; limit < maxlag {
		maxlag = limit
	}
	if maxlag < 0 {
		return nil, newError(models.ErrorKindInsufficientSamples,
			"sample size is too short to use selected regression component (%d observations)", n)
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = values[i] - values[i-1]
	}

	// Lag search on the sample that the largest lag leaves available.
	aics := make([]float64, maxlag+1)
	for lag := range aics {
		x, y := adfDesign(values, diff, maxlag, lag)
		fit, err := fitOLS(x, y)
		if err != nil {
			return nil, err
		}
		if fit.ssr <= 0 {
			return nil, newError(numerical, "regression fits the series exactly at lag %d", lag)
		}
		aics[lag] = fit.aic()
	}
	bestLag := selectLag(aics)
	bestAIC := aics[bestLag]

	x, y := adfDesign(values, diff, bestLag, bestLag)
	fit, err := fitOLS(x, y)
	if err != nil {
		return nil, err
	}
	stat := fit.tvalue(1)
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return nil, newError(numerical, "test statistic is not finite")
	}

	p := MacKinnonPValue(stat)
	label, stationary := Classify(p)
	return &models.StationarityResult{
		Statistic:      stat,
		PValue:         p,
		UsedLag:        bestLag,
		NObs:           fit.nobs,
		CriticalValues: CriticalValues(fit.nobs),
		AIC:            bestAIC,
		Label:          label,
		Stationary:     stationary,
	}, nil
}

// selectLag returns the lag with the lowest AIC. Ties go to the smaller lag.
func selectLag(aics []float64) int {
	best := 0
	for lag, aic := range aics {
		if aic < aics[best] {
			best = lag
		}
	}
	return best
}

// adfDesign builds the regression of diff[t] on a constant, the lagged level and
// lag lagged differences. The first trim differences are skipped so that fits
// with different lag counts share the same rows.
func adfDesign(values, diff []float64, trim, lag int) (*mat.Dense, []float64) {
	nobs := len(diff) - trim
	k := 2 + lag
	x := mat.NewDense(nobs, k, nil)
	y := make([]float64, nobs)
	for i := 0; i < nobs; i++ {
		t := i + trim
		y[i] = diff[t]
		x.Set(i, 0, 1)
		x.Set(i, 1, values[t])
		for j := 1; j <= lag; j++ {
			x.Set(i, 1+j, diff[t-j])
		}
	}
	return x, y
}

// Classify applies the fixed 0.05 threshold. The comparison is strict.
func Classify(pvalue float64) (label string, stationary bool) {
	if pvalue < SignificanceLevel {
		return models.LabelStationary, true
	}
	return models.LabelNotStationary, false
}

// MacKinnonPValue returns the approximate asymptotic p-value of an ADF statistic
// for the constant-only regression.
func MacKinnonPValue(stat float64) float64 {
	switch {
	case stat > tauMax:
		return 1
	case stat < tauMin:
		return 0
	}
	coef := tauLargeP
	if stat <= tauStar {
		coef = tauSmallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, stat))
}

// CriticalValues returns the 1%, 5% and 10% critical values for a sample of nobs.
func CriticalValues(nobs int) map[string]float64 {
	out := make(map[string]float64, len(tauCritical))
	inv := 1 / float64(nobs)
	for level, coef := range tauCritical {
		out[level] = polyval(coef, inv)
	}
	return out
}

// polyval evaluates c[0] + c[1]*x + c[2]*x^2 + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
