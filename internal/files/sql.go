package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLStore keeps the folder in a single table. It works against PostgreSQL
// (driver "postgres") and SQLite (driver "sqlite").
type SQLStore struct {
	db *sqlx.DB
}

// Compile-time interface check.
var _ Store = (*SQLStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	folder TEXT NOT NULL,
	name TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	content BYTEA,
	modified_unix_nano BIGINT NOT NULL,
	UNIQUE (folder, name)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS files (
	id TEXT PRIMARY KEY,
	folder TEXT NOT NULL,
	name TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	content BLOB,
	modified_unix_nano INTEGER NOT NULL,
	UNIQUE (folder, name)
);
`

// NewSQLStore connects to the database and creates the files table if it
// does not exist.
func NewSQLStore(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sqlx.Connect(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	schema := postgresSchema
	if driverName == "sqlite" {
		schema = sqliteSchema
		// A single connection keeps ":memory:" databases shared.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create files table: %w", err)
	}

	return &SQLStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type fileRow struct {
	ID               string `db:"id"`
	Name             string `db:"name"`
	MimeType         string `db:"mime_type"`
	Size             int64  `db:"size"`
	ModifiedUnixNano int64  `db:"modified_unix_nano"`
}

func (r fileRow) file() File {
	return File{
		ID:       r.ID,
		Name:     r.Name,
		MimeType: r.MimeType,
		Size:     r.Size,
		Modified: time.Unix(0, r.ModifiedUnixNano).UTC(),
	}
}

// List returns the files in folder ordered by name.
func (s *SQLStore) List(ctx context.Context, folder string) ([]File, error) {
	var rows []fileRow
	query := s.db.Rebind("SELECT id, name, mime_type, COALESCE(LENGTH(content), 0) AS size, modified_unix_nano FROM files WHERE folder = ? ORDER BY name")
	if err := s.db.SelectContext(ctx, &rows, query, folder); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	out := make([]File, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.file())
	}
	return out, nil
}

// Read returns the content of folder/name.
func (s *SQLStore) Read(ctx context.Context, folder, name string) ([]byte, error) {
	var content []byte
	query := s.db.Rebind("SELECT content FROM files WHERE folder = ? AND name = ?")
	err := s.db.QueryRowxContext(ctx, query, folder, name).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return content, nil
}

// ReadByID returns the content of the file with the given id.
func (s *SQLStore) ReadByID(ctx context.Context, id string) ([]byte, error) {
	var content []byte
	query := s.db.Rebind("SELECT content FROM files WHERE id = ?")
	err := s.db.QueryRowxContext(ctx, query, id).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to read file by id: %w", err)
	}
	return content, nil
}

// Write upserts folder/name. The id of an existing file is kept.
func (s *SQLStore) Write(ctx context.Context, folder, name, mimeType string, content []byte) (File, error) {
	now := time.Now().UTC()
	query := s.db.Rebind(`INSERT INTO files (id, folder, name, mime_type, content, modified_unix_nano) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (folder, name) DO UPDATE SET mime_type = excluded.mime_type, content = excluded.content, modified_unix_nano = excluded.modified_unix_nano`)
	_, err := s.db.ExecContext(ctx, query, uuid.NewString(), folder, name, mimeType, content, now.UnixNano())
	if err != nil {
		return File{}, fmt.Errorf("failed to write file %s: %w", name, err)
	}

	var row fileRow
	query = s.db.Rebind("SELECT id, name, mime_type, COALESCE(LENGTH(content), 0) AS size, modified_unix_nano FROM files WHERE folder = ? AND name = ?")
	if err := s.db.GetContext(ctx, &row, query, folder, name); err != nil {
		return File{}, fmt.Errorf("failed to read back file %s: %w", name, err)
	}
	return row.file(), nil
}
