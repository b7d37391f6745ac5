// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/timeseries-dashboard/backend/internal/chart"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	SessionMgr        SessionManager
	Renderer          *chart.Renderer
	AllowedExtensions []string
	Version           string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Session SessionHandler
	Report  ReportHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	renderer := deps.Renderer
	if renderer == nil {
		renderer = chart.NewRenderer(nil)
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.SessionMgr),
		Session: NewSessionHandler(deps.SessionMgr, deps.AllowedExtensions),
		Report:  NewReportHandler(deps.SessionMgr, renderer),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")
	api.GET("/health", handlers.Health.HandleHealth)

	sessions := api.Group("/sessions")
	sessions.POST("", handlers.Session.HandleCreateSession)
	sessions.GET("/:id", handlers.Session.HandleGetSession)
	sessions.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessions.POST("/:id/upload", handlers.Session.HandleUpload)
	sessions.POST("/:id/upload/base64", handlers.Session.HandleUploadBase64)
	sessions.PUT("/:id/column", handlers.Session.HandleSelectColumn)
	sessions.GET("/:id/file", handlers.Session.HandleGetFile)

	sessions.GET("/:id/report", handlers.Report.HandleGetReport)
	sessions.GET("/:id/report/msgpack", handlers.Report.HandleGetReportMsgpack)
	sessions.GET("/:id/charts/:panel", handlers.Report.HandleGetChart)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
