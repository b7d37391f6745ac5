// handlers_report.go - Analysis report and chart handlers
package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/timeseries-dashboard/backend/internal/chart"
	"github.com/timeseries-dashboard/backend/internal/models"
)

// Chart panel names accepted by HandleGetChart.
const (
	PanelSeries        = "series"
	PanelCorrelation   = "correlation"
	PanelDecomposition = "decomposition"
)

// ReportHandlerImpl implements the ReportHandler interface
type ReportHandlerImpl struct {
	sessionMgr SessionManager
	renderer   *chart.Renderer
}

// NewReportHandler creates a new report handler
func NewReportHandler(sessionMgr SessionManager, renderer *chart.Renderer) ReportHandler {
	return &ReportHandlerImpl{
		sessionMgr: sessionMgr,
		renderer:   renderer,
	}
}

// HandleGetReport returns the analysis report as JSON
func (h *ReportHandlerImpl) HandleGetReport(c echo.Context) error {
	report, err := h.report(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// HandleGetReportMsgpack returns the analysis report in MessagePack encoding
func (h *ReportHandlerImpl) HandleGetReportMsgpack(c echo.Context) error {
	report, err := h.report(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(report)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetChart renders one panel of the report as PNG or SVG
func (h *ReportHandlerImpl) HandleGetChart(c echo.Context) error {
	format, err := chart.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return NewBadRequestError("invalid format", err)
	}

	panel := c.Param("panel")
	switch panel {
	case PanelSeries, PanelCorrelation, PanelDecomposition:
	default:
		return NewNotFoundError("panel", panel)
	}

	report, err := h.report(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch panel {
	case PanelSeries:
		err = h.renderer.Series(&buf, report.Series.Data, format)
	case PanelCorrelation:
		if report.Correlation.IsError() {
			return panelError(report.Correlation.Error)
		}
		err = h.renderer.Correlation(&buf, report.Correlation.Data, format)
	case PanelDecomposition:
		if report.Decomposition.IsError() {
			return panelError(report.Decomposition.Error)
		}
		err = h.renderer.Decomposition(&buf, report.Decomposition.Data, format)
	}
	if err != nil {
		return NewInternalError("failed to render chart", err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *ReportHandlerImpl) report(c echo.Context) (*models.Report, error) {
	id := c.Param("id")
	report, err := h.sessionMgr.Report(id)
	if err != nil {
		return nil, sessionError(err, id)
	}
	h.sessionMgr.TouchSession(id)
	return report, nil
}

// panelError reports that a failed analyzer has no chart to draw.
func panelError(pe *models.PanelError) *APIError {
	err := NewConflictError("panel has no chart")
	err.Details = pe.Message
	return err
}
