package models

// PanelStatus tags the outcome of one analyzer.
type PanelStatus string

const (
	PanelStatusOK    PanelStatus = "ok"
	PanelStatusError PanelStatus = "error"
)

// ErrorKind classifies analyzer failures.
type ErrorKind string

const (
	ErrorKindEmptySeries         ErrorKind = "empty_series"
	ErrorKindInsufficientSamples ErrorKind = "insufficient_samples"
	ErrorKindConstantSeries      ErrorKind = "constant_series"
	ErrorKindNumericalFailure    ErrorKind = "numerical_failure"
)

// PanelError is the one-line message shown in place of a failed panel.
type PanelError struct {
	Kind    ErrorKind `json:"kind" msgpack:"kind"`
	Message string    `json:"message" msgpack:"message"`
}

// Panel is either a success payload or an error.
type Panel[T any] struct {
	Status PanelStatus `json:"status" msgpack:"status"`
	Data   *T          `json:"data,omitempty" msgpack:"data,omitempty"`
	Error  *PanelError `json:"error,omitempty" msgpack:"error,omitempty"`
}

// OK wraps a successful result.
func OK[T any](data *T) Panel[T] {
	return Panel[T]{Status: PanelStatusOK, Data: data}
}

// Failed wraps an analyzer failure.
func Failed[T any](kind ErrorKind, message string) Panel[T] {
	return Panel[T]{Status: PanelStatusError, Error: &PanelError{Kind: kind, Message: message}}
}

// IsError reports whether the panel holds an error.
func (p Panel[T]) IsError() bool {
	return p.Status == PanelStatusError
}

// Stationarity labels.
const (
	LabelStationary    = "likely stationary"
	LabelNotStationary = "not stationary"
)

// StationarityResult is the outcome of the augmented Dickey-Fuller test.
type StationarityResult struct {
	Statistic      float64            `json:"statistic" msgpack:"statistic"`
	PValue         float64            `json:"pValue" msgpack:"pValue"`
	UsedLag        int                `json:"usedLag" msgpack:"usedLag"`
	NObs           int                `json:"nobs" msgpack:"nobs"`
	CriticalValues map[string]float64 `json:"criticalValues" msgpack:"criticalValues"`
	AIC            float64            `json:"aic" msgpack:"aic"`
	Label          string             `json:"label" msgpack:"label"`
	Stationary     bool               `json:"stationary" msgpack:"stationary"`
}

// Correlogram holds ACF or PACF values with their 95% confidence half-widths.
// Lags, Values and Bounds are aligned and start at lag 0.
type Correlogram struct {
	Lags   []int     `json:"lags" msgpack:"lags"`
	Values []float64 `json:"values" msgpack:"values"`
	Bounds []float64 `json:"bounds" msgpack:"bounds"`
}

// CorrelationResult pairs the autocorrelation and partial autocorrelation functions.
type CorrelationResult struct {
	ACF  Correlogram `json:"acf" msgpack:"acf"`
	PACF Correlogram `json:"pacf" msgpack:"pacf"`
}

// DecompositionResult holds the four aligned components of an additive decomposition.
// Trend and Residual contain NaN where the moving average is undefined; they are
// encoded as null in JSON.
type DecompositionResult struct {
	Model    string         `json:"model" msgpack:"model"`
	Period   int            `json:"period" msgpack:"period"`
	Years    []int          `json:"years" msgpack:"years"`
	Observed []float64      `json:"observed" msgpack:"observed"`
	Trend    NullableFloats `json:"trend" msgpack:"trend"`
	Seasonal []float64      `json:"seasonal" msgpack:"seasonal"`
	Residual NullableFloats `json:"residual" msgpack:"residual"`
	Caption  string         `json:"caption" msgpack:"caption"`
}

// Report is the output of one pipeline run, in display order.
type Report struct {
	Column        string                     `json:"column" msgpack:"column"`
	Series        Panel[Series]              `json:"series" msgpack:"series"`
	Stationarity  Panel[StationarityResult]  `json:"stationarity" msgpack:"stationarity"`
	Correlation   Panel[CorrelationResult]   `json:"correlation" msgpack:"correlation"`
	Decomposition Panel[DecompositionResult] `json:"decomposition" msgpack:"decomposition"`
}
