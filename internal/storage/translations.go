package storage

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hyperjump/transmem/internal/kvstore"
	"github.com/hyperjump/transmem/internal/models"
)

// Translations maps a record key to the ordered, deduplicated list of
// translations known for one source string.
type Translations struct {
	store kvstore.RecordStore
}

// NewTranslations wraps a sequential-record-numbered store.
func NewTranslations(store kvstore.RecordStore) *Translations {
	return &Translations{store: store}
}

// Create appends a new record holding a single translation and returns its key.
func (t *Translations) Create(translation string) (models.RecordKey, error) {
	data, err := encodeTranslations([]string{translation})
	if err != nil {
		return models.InvalidKey, err
	}
	key, err := t.store.Append(data)
	if err != nil {
		return models.InvalidKey, err
	}
	return models.RecordKey(key), nil
}

// Read returns the translations of key. An unknown key yields a
// kvstore.KindNotFound error.
func (t *Translations) Read(key models.RecordKey) ([]string, error) {
	data, err := t.store.Get(uint64(key))
	if err != nil {
		return nil, err
	}
	return decodeTranslations(data)
}

// Add appends translation to the list of key unless it is already present,
// rewriting the record under the same key. It reports whether the list changed.
func (t *Translations) Add(key models.RecordKey, translation string) (bool, error) {
	list, err := t.Read(key)
	if err != nil {
		return false, err
	}
	for _, existing := range list {
		if existing == translation {
			return false, nil
		}
	}
	data, err := encodeTranslations(append(list, translation))
	if err != nil {
		return false, err
	}
	if err := t.store.Put(uint64(key), data); err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the underlying store.
func (t *Translations) Close() error {
	return t.store.Close()
}

func encodeTranslations(list []string) ([]byte, error) {
	data, err := msgpack.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translations: %w", err)
	}
	return data, nil
}

func decodeTranslations(data []byte) ([]string, error) {
	var list []string
	if err := msgpack.Unmarshal(data, &list); err != nil {
		return nil, &kvstore.Error{Op: "decode", Kind: kvstore.KindCorrupt, Err: err}
	}
	return list, nil
}
