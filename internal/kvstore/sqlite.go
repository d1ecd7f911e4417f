package kvstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

func openSQLite(path, schema string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: err}
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: err}
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: fmt.Errorf("failed to enable WAL: %w", err)}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: fmt.Errorf("failed to initialize schema: %w", err)}
	}
	return db, nil
}

// sqliteHash implements HashStore on a blob-keyed table.
type sqliteHash struct {
	db   *sql.DB
	path string
}

func openSQLiteHash(path string) (*sqliteHash, error) {
	db, err := openSQLite(path, `
	CREATE TABLE IF NOT EXISTS entries (
		key BLOB PRIMARY KEY,
		value BLOB NOT NULL
	) WITHOUT ROWID;
	`)
	if err != nil {
		return nil, err
	}
	return &sqliteHash{db: db, path: path}, nil
}

func (s *sqliteHash) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, notFound("get", s.path)
	}
	if err != nil {
		return nil, &Error{Op: "get", Path: s.path, Kind: KindRead, Err: err}
	}
	return value, nil
}

func (s *sqliteHash) Put(key, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO entries (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return &Error{Op: "put", Path: s.path, Kind: KindWrite, Err: err}
	}
	return nil
}

func (s *sqliteHash) ForEach(fn func(key, value []byte) error) error {
	rows, err := s.db.Query(`SELECT key, value FROM entries ORDER BY key`)
	if err != nil {
		return &Error{Op: "foreach", Path: s.path, Kind: KindRead, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return &Error{Op: "foreach", Path: s.path, Kind: KindRead, Err: err}
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &Error{Op: "foreach", Path: s.path, Kind: KindRead, Err: err}
	}
	return nil
}

func (s *sqliteHash) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, &Error{Op: "len", Path: s.path, Kind: KindRead, Err: err}
	}
	return n, nil
}

func (s *sqliteHash) Close() error {
	if err := s.db.Close(); err != nil {
		return &Error{Op: "close", Path: s.path, Kind: KindClose, Err: err}
	}
	return nil
}

// sqliteRecords implements RecordStore with an AUTOINCREMENT key, which never
// reuses a number even if the highest row is removed.
type sqliteRecords struct {
	db   *sql.DB
	path string
}

func openSQLiteRecords(path string) (*sqliteRecords, error) {
	db, err := openSQLite(path, `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		value BLOB NOT NULL
	);
	`)
	if err != nil {
		return nil, err
	}
	return &sqliteRecords{db: db, path: path}, nil
}

func (s *sqliteRecords) Append(value []byte) (uint64, error) {
	result, err := s.db.Exec(`INSERT INTO records (value) VALUES (?)`, value)
	if err != nil {
		return 0, &Error{Op: "append", Path: s.path, Kind: KindWrite, Err: err}
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, &Error{Op: "append", Path: s.path, Kind: KindWrite, Err: err}
	}
	return uint64(id), nil
}

func (s *sqliteRecords) Get(key uint64) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM records WHERE id = ?`, int64(key)).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, notFound("get", s.path)
	}
	if err != nil {
		return nil, &Error{Op: "get", Path: s.path, Kind: KindRead, Err: err}
	}
	return value, nil
}

func (s *sqliteRecords) Put(key uint64, value []byte) error {
	result, err := s.db.Exec(`UPDATE records SET value = ? WHERE id = ?`, value, int64(key))
	if err != nil {
		return &Error{Op: "put", Path: s.path, Kind: KindWrite, Err: err}
	}
	return checkUpdated("put", s.path, result)
}

// checkUpdated maps an UPDATE that touched no row to KindNotFound.
func checkUpdated(op, path string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return &Error{Op: op, Path: path, Kind: KindWrite, Err: err}
	}
	if n == 0 {
		return notFound(op, path)
	}
	return nil
}

func (s *sqliteRecords) Close() error {
	if err := s.db.Close(); err != nil {
		return &Error{Op: "close", Path: s.path, Kind: KindClose, Err: err}
	}
	return nil
}
