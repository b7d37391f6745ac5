package models

import "time"

// SessionStatus represents the state of an analysis session.
type SessionStatus string

const (
	SessionStatusAwaitingFile SessionStatus = "awaiting_file"
	SessionStatusLoaded       SessionStatus = "loaded"
)

// AwaitingFileMessage is shown while no file has been uploaded.
const AwaitingFileMessage = "Please upload a CSV file with YEAR and time series data."

// AnalysisSession is the client-facing view of a session.
type AnalysisSession struct {
	ID             string        `json:"id"`
	Status         SessionStatus `json:"status"`
	Message        string        `json:"message,omitempty"`
	File           *FileInfo     `json:"file,omitempty"`
	Preview        *TablePreview `json:"preview,omitempty"`
	Columns        []string      `json:"columns,omitempty"`
	SelectedColumn string        `json:"selectedColumn,omitempty"`
	IndexedRows    int           `json:"indexedRows,omitempty"`
	DroppedRows    int           `json:"droppedRows,omitempty"`
	FirstYear      int           `json:"firstYear,omitempty"`
	LastYear       int           `json:"lastYear,omitempty"`
	DuplicateYears []int         `json:"duplicateYears,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// NewAnalysisSession creates a session waiting for its first upload.
func NewAnalysisSession(id string) *AnalysisSession {
	now := time.Now()
	return &AnalysisSession{
		ID:        id,
		Status:    SessionStatusAwaitingFile,
		Message:   AwaitingFileMessage,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
