// handlers_session.go - Session, upload and column selection handlers
package api

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessionMgr SessionManager
	extensions []string
}

// NewSessionHandler creates a new session handler. An empty extension list
// accepts any file name.
func NewSessionHandler(sessionMgr SessionManager, extensions []string) SessionHandler {
	return &SessionHandlerImpl{
		sessionMgr: sessionMgr,
		extensions: extensions,
	}
}

// HandleCreateSession starts a session waiting for its first file
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	return c.JSON(http.StatusCreated, h.sessionMgr.Create())
}

// HandleGetSession returns the session view
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	h.sessionMgr.TouchSession(id)
	return c.JSON(http.StatusOK, sess)
}

// HandleDeleteSession discards a session and everything derived from its file
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessionMgr.Delete(id); err != nil {
		return sessionError(err, id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleUpload accepts a multipart CSV upload (field "file", optional "column")
// and runs the analysis pipeline
func (h *SessionHandlerImpl) HandleUpload(c echo.Context) error {
	id := c.Param("id")

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}
	if err := h.checkExtension(file.Filename); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	sess, err := h.sessionMgr.Upload(c.Request().Context(), id, file.Filename, src, c.FormValue("column"))
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleUploadBase64 accepts a file as base64 JSON and runs the analysis pipeline
func (h *SessionHandlerImpl) HandleUploadBase64(c echo.Context) error {
	id := c.Param("id")

	var req uploadFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if err := h.checkExtension(req.Name); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	sess, err := h.sessionMgr.Upload(c.Request().Context(), id, req.Name, bytes.NewReader(decoded), req.Column)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleSelectColumn re-runs the pipeline on another column
func (h *SessionHandlerImpl) HandleSelectColumn(c echo.Context) error {
	id := c.Param("id")

	var req selectColumnRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	sess, err := h.sessionMgr.SelectColumn(c.Request().Context(), id, req.Column)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleGetFile returns metadata of the uploaded file
func (h *SessionHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.sessionMgr.File(id)
	if err != nil {
		return sessionError(err, id)
	}
	return c.JSON(http.StatusOK, info)
}

func (h *SessionHandlerImpl) checkExtension(name string) error {
	if len(h.extensions) == 0 {
		return nil
	}
	lower := strings.ToLower(name)
	for _, ext := range h.extensions {
		if strings.HasSuffix(lower, ext) {
			return nil
		}
	}
	return NewBadRequestError("unsupported file type: "+name, nil)
}

type uploadFileRequest struct {
	Name   string `json:"name"`
	Data   string `json:"data"` // Base64-encoded content
	Column string `json:"column,omitempty"`
}

func (r *uploadFileRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

type selectColumnRequest struct {
	Column string `json:"column"`
}

func (r *selectColumnRequest) validate() error {
	if strings.TrimSpace(r.Column) == "" {
		return NewValidationError("column")
	}
	return nil
}
