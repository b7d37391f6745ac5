// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/timeseries-dashboard/backend/internal/models"
)

// SessionHandler handles session lifecycle and the two user interactions:
// uploading a file and choosing a column.
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleUpload(c echo.Context) error
	HandleUploadBase64(c echo.Context) error
	HandleSelectColumn(c echo.Context) error
	HandleGetFile(c echo.Context) error
}

// ReportHandler serves analysis results and charts
type ReportHandler interface {
	HandleGetReport(c echo.Context) error
	HandleGetReportMsgpack(c echo.Context) error
	HandleGetChart(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create() *models.AnalysisSession
	GetSession(id string) (*models.AnalysisSession, bool)
	Upload(ctx context.Context, id, name string, r io.Reader, column string) (*models.AnalysisSession, error)
	SelectColumn(ctx context.Context, id, column string) (*models.AnalysisSession, error)
	Report(id string) (*models.Report, error)
	File(id string) (*models.FileInfo, error)
	Uploads() int
	Delete(id string) error
	TouchSession(id string) bool
	Count() int
}
