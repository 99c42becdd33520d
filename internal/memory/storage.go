package memory

import (
	"context"
	"path/filepath"
	"strings"
)

// Storage persists the full set of entries. Save replaces whatever was
// stored before. Load on storage that does not exist yet returns an error
// matching fs.ErrNotExist.
type Storage interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
	Close() error
}

// OpenStorage picks a backend from the file extension: .db, .sqlite and
// .sqlite3 open a SQLite database, anything else a JSON file.
func OpenStorage(path string) (Storage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return &JSONFile{Path: path}, nil
	}
}
