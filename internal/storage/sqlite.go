package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/standardbeagle/cxxmodel/internal/debug"
	cxerrors "github.com/standardbeagle/cxxmodel/internal/errors"
	"github.com/standardbeagle/cxxmodel/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	key  TEXT PRIMARY KEY,
	file INTEGER NOT NULL,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_file ON records(file);
`

// SQLite stores records in a single-table SQLite database.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, cxerrors.NewStorageError("open", "", errors.New("sqlite backend requires a path"))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, cxerrors.NewStorageError("open", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cxerrors.NewStorageError("open", path, err)
	}

	// Enable WAL mode for concurrent readers during indexing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, cxerrors.NewStorageError("open", path, fmt.Errorf("set WAL mode: %w", err))
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, cxerrors.NewStorageError("open", path, fmt.Errorf("init schema: %w", err))
	}

	debug.LogStore("opened sqlite store %s", path)
	return &SQLite{db: db, dbPath: path}, nil
}

func (s *SQLite) Put(ctx context.Context, key string, file types.FileID, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (key, file, data) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET file = excluded.file, data = excluded.data`,
		key, int64(file), data)
	if err != nil {
		return cxerrors.NewStorageError("put", key, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM records WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, cxerrors.NewStorageError("get", key, err)
	}
	return data, nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE key = ?", key); err != nil {
		return cxerrors.NewStorageError("delete", key, err)
	}
	return nil
}

func (s *SQLite) DeleteFile(ctx context.Context, file types.FileID) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE file = ?", int64(file))
	if err != nil {
		return 0, cxerrors.NewStorageError("delete-file", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, cxerrors.NewStorageError("delete-file", "", err)
	}
	return int(n), nil
}

func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, cxerrors.NewStorageError("count", "", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}
