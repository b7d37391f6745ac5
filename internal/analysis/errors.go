// Package analysis implements the statistics behind the dashboard panels:
// the augmented Dickey-Fuller test, autocorrelation functions and classical
// additive decomposition.
package analysis

import (
	"errors"
	"fmt"

	"github.com/timeseries-dashboard/backend/internal/models"
)

// Error is a recoverable analyzer failure. It is shown in place of the panel
// and never stops the other analyzers.
type Error struct {
	Kind    models.ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

const numerical = models.ErrorKindNumericalFailure

func newError(kind models.ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an analyzer error. Errors that did not come from
// this package are reported as numerical failures.
func KindOf(err error) models.ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return models.ErrorKindNumericalFailure
}

func errEmpty() *Error {
	return newError(models.ErrorKindEmptySeries, "the selected column has no numeric values")
}

func errConstant() *Error {
	return newError(models.ErrorKindConstantSeries, "invalid input, the series is constant")
}
