// Package drive implements files.Store on top of a Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"myfood/internal/files"
)

// Client is a files.Store backed by the Google Drive API.
type Client struct {
	srv *gdrive.Service
}

// Compile-time interface check.
var _ files.Store = (*Client)(nil)

// NewClient creates a Drive client authenticated with a service account
// JSON key.
func NewClient(ctx context.Context, credentialsJSON []byte) (*Client, error) {
	srv, err := gdrive.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gdrive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &Client{srv: srv}, nil
}

// NewClientWithService wraps an existing service, e.g. one pointed at a
// test server with option.WithEndpoint.
func NewClientWithService(srv *gdrive.Service) *Client {
	return &Client{srv: srv}
}

const fileFields = "id, name, mimeType, size, modifiedTime"

// List returns the non-trashed files of folder.
func (c *Client) List(ctx context.Context, folder string) ([]files.File, error) {
	var out []files.File
	q := fmt.Sprintf("'%s' in parents and trashed=false", escape(folder))

	err := c.srv.Files.List().
		Q(q).
		Fields("nextPageToken, files("+fileFields+")").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Pages(ctx, func(page *gdrive.FileList) error {
			for _, f := range page.Files {
				out = append(out, toFile(f))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list drive folder: %w", err)
	}
	return out, nil
}

// Read downloads the first file named name in folder.
func (c *Client) Read(ctx context.Context, folder, name string) ([]byte, error) {
	f, err := c.find(ctx, folder, name)
	if err != nil {
		return nil, err
	}
	return c.ReadByID(ctx, f.Id)
}

// ReadByID downloads a file's content.
func (c *Client) ReadByID(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.srv.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, files.ErrNotExist
		}
		return nil, fmt.Errorf("failed to download drive file %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive file %s: %w", id, err)
	}
	return data, nil
}

// Write replaces the content of folder/name, creating the file if needed.
func (c *Client) Write(ctx context.Context, folder, name, mimeType string, content []byte) (files.File, error) {
	existing, err := c.find(ctx, folder, name)
	if err != nil && !errors.Is(err, files.ErrNotExist) {
		return files.File{}, err
	}

	var f *gdrive.File
	if existing != nil {
		f, err = c.srv.Files.Update(existing.Id, &gdrive.File{MimeType: mimeType}).
			Media(bytes.NewReader(content)).
			SupportsAllDrives(true).
			Fields(fileFields).
			Context(ctx).
			Do()
	} else {
		f, err = c.srv.Files.Create(&gdrive.File{Name: name, MimeType: mimeType, Parents: []string{folder}}).
			Media(bytes.NewReader(content)).
			SupportsAllDrives(true).
			Fields(fileFields).
			Context(ctx).
			Do()
	}
	if err != nil {
		return files.File{}, fmt.Errorf("failed to upload %s to drive: %w", name, err)
	}
	return toFile(f), nil
}

func (c *Client) find(ctx context.Context, folder, name string) (*gdrive.File, error) {
	q := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", escape(folder), escape(name))
	res, err := c.srv.Files.List().
		Q(q).
		Fields("files(" + fileFields + ")").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query drive for %s: %w", name, err)
	}
	if len(res.Files) == 0 {
		return nil, files.ErrNotExist
	}
	return res.Files[0], nil
}

func toFile(f *gdrive.File) files.File {
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	return files.File{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Size:     f.Size,
		Modified: modified,
	}
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// escape quotes a value for a Drive query string literal.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
