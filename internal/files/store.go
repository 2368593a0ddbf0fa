// Package files abstracts the remote folder the application keeps its data
// in: a flat set of named files addressed by folder and name.
package files

import (
	"context"
	"errors"
	"time"
)

// ErrNotExist is returned when no file matches the requested name or id.
var ErrNotExist = errors.New("file does not exist")

// File describes a stored file.
type File struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	MimeType string    `json:"mime_type"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store defines the operations on the remote folder.
type Store interface {
	// List returns the files in folder.
	List(ctx context.Context, folder string) ([]File, error)
	// Read returns the content of the first file named name in folder.
	Read(ctx context.Context, folder, name string) ([]byte, error)
	// Write creates or replaces the file named name in folder.
	Write(ctx context.Context, folder, name, mimeType string, content []byte) (File, error)
	// ReadByID returns the content of the file with the given id.
	ReadByID(ctx context.Context, id string) ([]byte, error)
}

const (
	MimeJSON = "application/json"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
