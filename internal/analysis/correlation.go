package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/timeseries-dashboard/backend/internal/models"
)

// Alpha is the significance level of the correlogram confidence bands.
const Alpha = 0.05

// DefaultLags is the number of lags drawn on both correlograms for a sample of n:
// min(ceil(10*log10(n)), n/2).
func DefaultLags(n int) int {
	if n < 1 {
		return 0
	}
	lags := int(math.Ceil(10 * math.Log10(float64(n))))
	if half := n / 2; half < lags {
		lags = half
	}
	return lags
}

// Correlations computes the ACF and PACF with the default lag count. It fails if
// either function cannot be computed.
func Correlations(values []float64) (*models.CorrelationResult, error) {
	nlags := DefaultLags(len(values))
	acf, err := ACF(values, nlags)
	if err != nil {
		return nil, err
	}
	pacf, err := PACF(values, nlags)
	if err != nil {
		return nil, err
	}
	return &models.CorrelationResult{ACF: *acf, PACF: *pacf}, nil
}

// ACF returns the sample autocorrelation for lags 0..nlags with Bartlett
// confidence half-widths. nlags is capped at n-1.
func ACF(values []float64, nlags int) (*models.Correlogram, error) {
	n := len(values)
	if n == 0 {
		return nil, errEmpty()
	}
	if n < 2 {
		return nil, newError(models.ErrorKindInsufficientSamples,
			"autocorrelation needs at least 2 observations, got %d", n)
	}
	if nlags > n-1 {
		nlags = n - 1
	}
	if nlags < 1 {
		nlags = 1
	}

	acf, err := autocorrelation(values, nlags)
	if err != nil {
		return nil, err
	}

	// Bartlett: var(r_k) = (1 + 2*sum_{j<k} r_j^2) / n.
	z := distuv.UnitNormal.Quantile(1 - Alpha/2)
	bounds := make([]float64, nlags+1)
	cum := 0.0
	for k := 1; k <= nlags; k++ {
		bounds[k] = z * math.Sqrt((1+2*cum)/float64(n))
		cum += acf[k] * acf[k]
	}

	return &models.Correlogram{Lags: lagIndex(nlags), Values: acf, Bounds: bounds}, nil
}

// PACF returns the partial autocorrelation for lags 0..nlags from the Yule-Walker
// equations on biased autocovariances, solved with the Durbin-Levinson recursion.
// nlags must be below half the sample size.
func PACF(values []float64, nlags int) (*models.Correlogram, error) {
	n := len(values)
	if n == 0 {
		return nil, errEmpty()
	}
	if nlags < 1 {
		nlags = 1
	}
	if nlags >= n/2 {
		return nil, newError(models.ErrorKindInsufficientSamples,
			"can only compute partial correlations for lags up to 50%% of the sample size; "+
				"the requested %d lags must be < %d", nlags, n/2)
	}

	acf, err := autocorrelation(values, nlags)
	if err != nil {
		return nil, err
	}

	pacf := make([]float64, nlags+1)
	pacf[0] = 1
	phi := make([]float64, nlags+1)
	prev := make([]float64, nlags+1)
	v := 1.0
	for k := 1; k <= nlags; k++ {
		num := acf[k]
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
		}
		phi[k] = num / v
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		v *= 1 - phi[k]*phi[k]
		pacf[k] = phi[k]
		if math.IsNaN(pacf[k]) || math.IsInf(pacf[k], 0) {
			return nil, newError(numerical, "partial autocorrelation is not finite at lag %d", k)
		}
		copy(prev, phi)
	}

	z := distuv.UnitNormal.Quantile(1 - Alpha/2)
	bounds := make([]float64, nlags+1)
	for k := 1; k <= nlags; k++ {
		bounds[k] = z / math.Sqrt(float64(n))
	}

	return &models.Correlogram{Lags: lagIndex(nlags), Values: pacf, Bounds: bounds}, nil
}

// autocorrelation returns r_0..r_nlags using the biased (divide by n) autocovariance.
func autocorrelation(values []float64, nlags int) ([]float64, error) {
	n := len(values)
	mean := stat.Mean(values, nil)
	gamma0 := 0.0
	for _, x := range values {
		gamma0 += (x - mean) * (x - mean)
	}
	if gamma0 == 0 {
		return nil, errConstant()
	}

	acf := make([]float64, nlags+1)
	for k := 0; k <= nlags; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		acf[k] = sum / gamma0
	}
	return acf, nil
}

func lagIndex(nlags int) []int {
	lags := make([]int, nlags+1)
	for i := range lags {
		lags[i] = i
	}
	return lags
}
