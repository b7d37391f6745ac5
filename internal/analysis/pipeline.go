package analysis

import (
	"github.com/timeseries-dashboard/backend/internal/models"
)

// Run executes every analyzer on the selected series in display order: series,
// stationarity, correlation, decomposition. An analyzer failure becomes an error
// panel and the remaining analyzers still run.
func Run(series *models.Series) *models.Report {
	if series == nil {
		series = &models.Series{}
	}
	report := &models.Report{
		Column: series.Name,
		Series: models.OK(series),
	}

	if res, err := ADF(series.Values); err != nil {
		report.Stationarity = failed[models.StationarityResult]("ADF test failed", err)
	} else {
		report.Stationarity = models.OK(res)
	}

	if res, err := Correlations(series.Values); err != nil {
		report.Correlation = failed[models.CorrelationResult]("ACF/PACF failed", err)
	} else {
		report.Correlation = models.OK(res)
	}

	if res, err := Decompose(series.Years, series.Values, DecompositionPeriod); err != nil {
		report.Decomposition = failed[models.DecompositionResult]("Decomposition failed", err)
	} else {
		report.Decomposition = models.OK(res)
	}

	return report
}

func failed[T any](prefix string, err error) models.Panel[T] {
	return models.Failed[T](KindOf(err), prefix+": "+err.Error())
}
