package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/hyperjump/transmem/internal/kvstore"
	"github.com/hyperjump/transmem/internal/models"
)

const (
	keySize    = 8
	lengthSize = 4
)

// Words maps (word, sentence length) to the ascending list of record keys of
// sentences with that many indexed words that contain the word.
type Words struct {
	store kvstore.HashStore
}

// NewWords wraps a hash-indexed store.
func NewWords(store kvstore.HashStore) *Words {
	return &Words{store: store}
}

// Postings returns the posting list of (word, length). An absent list yields a
// kvstore.KindNotFound error.
func (w *Words) Postings(word string, length int) ([]models.RecordKey, error) {
	data, err := w.store.Get(postingKey(word, length))
	if err != nil {
		return nil, err
	}
	return decodePostings(data)
}

// Append adds key to the end of the posting list of (word, length), creating
// the list if needed. Record keys grow monotonically, so appending keeps the
// list sorted; a key that is not greater than the current tail is rejected
// with ErrUnsortedPosting.
func (w *Words) Append(word string, length int, key models.RecordKey) error {
	pk := postingKey(word, length)
	data, err := w.store.Get(pk)
	if err != nil && !kvstore.IsNotFound(err) {
		return err
	}
	if len(data)%keySize != 0 {
		return &kvstore.Error{Op: "decode", Kind: kvstore.KindCorrupt}
	}
	if n := len(data); n > 0 {
		if tail := models.RecordKey(binary.BigEndian.Uint64(data[n-keySize:])); key <= tail {
			return fmt.Errorf("%w: %d after %d for %q/%d", ErrUnsortedPosting, key, tail, word, length)
		}
	}
	out := make([]byte, len(data), len(data)+keySize)
	copy(out, data)
	out = binary.BigEndian.AppendUint64(out, uint64(key))
	return w.store.Put(pk, out)
}

// Len returns the number of posting lists.
func (w *Words) Len() (int, error) {
	return w.store.Len()
}

// Close closes the underlying store.
func (w *Words) Close() error {
	return w.store.Close()
}

// postingKey is the sentence length as 4 big-endian bytes followed by the word.
func postingKey(word string, length int) []byte {
	b := make([]byte, lengthSize, lengthSize+len(word))
	binary.BigEndian.PutUint32(b, uint32(length))
	return append(b, word...)
}

func decodePostings(data []byte) ([]models.RecordKey, error) {
	if len(data)%keySize != 0 {
		return nil, &kvstore.Error{Op: "decode", Kind: kvstore.KindCorrupt}
	}
	keys := make([]models.RecordKey, len(data)/keySize)
	for i := range keys {
		keys[i] = models.RecordKey(binary.BigEndian.Uint64(data[i*keySize:]))
	}
	return keys, nil
}
