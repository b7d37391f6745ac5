package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// olsFit is an ordinary least squares fit of y on the columns of X.
type olsFit struct {
	params []float64
	bse    []float64
	ssr    float64
	nobs   int
	k      int
}

// fitOLS solves the normal equations with a Cholesky factorization of X'X.
func fitOLS(x *mat.Dense, y []float64) (*olsFit, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, newError(numerical, "regression has %d rows but %d targets", n, len(y))
	}
	if n <= k {
		return nil, newError(numerical, "regression needs more than %d observations, got %d", k, n)
	}

	xtx := mat.NewSymDense(k, nil)
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(xtx); !ok {
		return nil, newError(numerical, "singular matrix in regression")
	}

	yv := mat.NewVecDense(n, y)
	xty := mat.NewVecDense(k, nil)
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, xty); err != nil && isSingular(err) {
		return nil, newError(numerical, "singular matrix in regression")
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil && isSingular(err) {
		return nil, newError(numerical, "singular matrix in regression")
	}

	sigma2 := ssr / float64(n-k)
	fit := &olsFit{
		params: make([]float64, k),
		bse:    make([]float64, k),
		ssr:    ssr,
		nobs:   n,
		k:      k,
	}
	for i := 0; i < k; i++ {
		fit.params[i] = beta.AtVec(i)
		fit.bse[i] = math.Sqrt(sigma2 * inv.At(i, i))
	}
	return fit, nil
}

// aic is the Akaike information criterion of a Gaussian linear model.
func (f *olsFit) aic() float64 {
	nobs := float64(f.nobs)
	llf := -nobs / 2 * (math.Log(2*math.Pi) + math.Log(f.ssr/nobs) + 1)
	return -2*llf + 2*float64(f.k)
}

// tvalue returns the t statistic of parameter i.
func (f *olsFit) tvalue(i int) float64 {
	return f.params[i] / f.bse[i]
}

// isSingular reports whether a gonum error means the system could not be solved.
// A finite mat.Condition is only an accuracy warning.
func isSingular(err error) bool {
	cond, ok := err.(mat.Condition)
	return !ok || math.IsInf(float64(cond), 1)
}
