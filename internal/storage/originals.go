package storage

import (
	"encoding/binary"

	"github.com/hyperjump/transmem/internal/kvstore"
	"github.com/hyperjump/transmem/internal/models"
)

// Originals maps a source string (exact bytes, case-sensitive) to the record
// key that owns its translations. Entries are never updated or removed.
type Originals struct {
	store kvstore.HashStore
}

// NewOriginals wraps a hash-indexed store.
func NewOriginals(store kvstore.HashStore) *Originals {
	return &Originals{store: store}
}

// Key returns the record key of original. Absent originals yield a
// kvstore.KindNotFound error.
func (o *Originals) Key(original string) (models.RecordKey, error) {
	data, err := o.store.Get([]byte(original))
	if err != nil {
		return models.InvalidKey, err
	}
	return decodeKey(data)
}

// Put maps original to key.
func (o *Originals) Put(original string, key models.RecordKey) error {
	return o.store.Put([]byte(original), encodeKey(key))
}

// ForEach calls fn for every stored original.
func (o *Originals) ForEach(fn func(original string, key models.RecordKey) error) error {
	return o.store.ForEach(func(k, v []byte) error {
		key, err := decodeKey(v)
		if err != nil {
			return err
		}
		return fn(string(k), key)
	})
}

// Len returns the number of stored originals.
func (o *Originals) Len() (int, error) {
	return o.store.Len()
}

// Close closes the underlying store.
func (o *Originals) Close() error {
	return o.store.Close()
}

func encodeKey(key models.RecordKey) []byte {
	b := make([]byte, keySize)
	binary.BigEndian.PutUint64(b, uint64(key))
	return b
}

func decodeKey(b []byte) (models.RecordKey, error) {
	if len(b) != keySize {
		return models.InvalidKey, &kvstore.Error{Op: "decode", Kind: kvstore.KindCorrupt}
	}
	return models.RecordKey(binary.BigEndian.Uint64(b)), nil
}
