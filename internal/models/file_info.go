package models

import "time"

// FileInfo represents metadata about an uploaded file.
type FileInfo struct {
	ID         string    `json:"id" msgpack:"id"`
	Name       string    `json:"name" msgpack:"name"`
	Size       int64     `json:"size" msgpack:"size"`
	Compressed bool      `json:"compressed,omitempty" msgpack:"compressed,omitempty"` // uploaded as gzip
	UploadedAt time.Time `json:"uploadedAt" msgpack:"uploadedAt"`
}
