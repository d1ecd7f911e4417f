// Package kvstore wraps an embedded single-file key-value engine.
//
// A store is either hash-indexed (HashStore, keyed by arbitrary bytes) or
// sequential-record-numbered (RecordStore, keyed by an auto-incrementing
// integer). Two backends implement both kinds: bbolt (the default) and SQLite.
package kvstore

import (
	"fmt"
	"strings"
)

// Backend names a storage engine.
type Backend string

const (
	// BackendBolt stores each KV store in a bbolt file with a single bucket.
	BackendBolt Backend = "bolt"
	// BackendSQLite stores each KV store in a SQLite file with a single table.
	BackendSQLite Backend = "sqlite"
)

// ParseBackend converts a configuration value to a Backend. Empty means bolt.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendBolt:
		return BackendBolt, nil
	case BackendSQLite:
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, s)
	}
}

// HashStore is a hash-indexed store keyed by arbitrary byte strings.
type HashStore interface {
	// Get returns the value stored under key, or an error of KindNotFound.
	Get(key []byte) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(key, value []byte) error
	// ForEach calls fn for every entry. Returning an error from fn stops iteration.
	ForEach(fn func(key, value []byte) error) error
	// Len returns the number of entries.
	Len() (int, error)
	Close() error
}

// RecordStore is a sequential-record-numbered store. Keys are assigned by the
// engine, start at 1, only ever increase and are never reused.
type RecordStore interface {
	// Append stores value under the next record number and returns it.
	Append(value []byte) (uint64, error)
	// Get returns the value of record key, or an error of KindNotFound.
	Get(key uint64) ([]byte, error)
	// Put overwrites an existing record. It never allocates a new record number.
	Put(key uint64, value []byte) error
	Close() error
}

// OpenHash opens (creating if needed) a hash-indexed store at path.
func OpenHash(backend Backend, path string) (HashStore, error) {
	switch backend {
	case "", BackendBolt:
		return openBoltHash(path)
	case BackendSQLite:
		return openSQLiteHash(path)
	default:
		return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: ErrUnsupportedBackend}
	}
}

// OpenRecords opens (creating if needed) a sequential-record-numbered store at path.
func OpenRecords(backend Backend, path string) (RecordStore, error) {
	switch backend {
	case "", BackendBolt:
		return openBoltRecords(path)
	case BackendSQLite:
		return openSQLiteRecords(path)
	default:
		return nil, &Error{Op: "open", Path: path, Kind: KindOpen, Err: ErrUnsupportedBackend}
	}
}
