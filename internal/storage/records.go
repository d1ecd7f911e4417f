package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/transmem/internal/kvstore"
	"github.com/hyperjump/transmem/internal/models"
)

// Records owns the three stores of one language directory.
// It performs no locking; callers serialize writers.
type Records struct {
	dir          string
	translations *Translations
	originals    *Originals
	words        *Words
	logger       *zap.Logger
}

// Option configures Records.
type Option func(*Records)

// WithLogger sets the logger used for swallowed engine errors and consistency anomalies.
func WithLogger(l *zap.Logger) Option {
	return func(r *Records) {
		if l != nil {
			r.logger = l
		}
	}
}

// Open opens (creating as needed) the three stores in dir. If any store fails
// to open, the ones already opened are closed before returning.
func Open(dir string, backend kvstore.Backend, opts ...Option) (_ *Records, err error) {
	r := &Records{dir: dir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	defer func() {
		if err != nil {
			_ = r.Close()
		}
	}()

	trans, err := kvstore.OpenRecords(backend, filepath.Join(dir, TranslationsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open translations store: %w", err)
	}
	r.translations = NewTranslations(trans)

	orig, err := kvstore.OpenHash(backend, filepath.Join(dir, OriginalsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open originals index: %w", err)
	}
	r.originals = NewOriginals(orig)

	words, err := kvstore.OpenHash(backend, filepath.Join(dir, WordsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open words index: %w", err)
	}
	r.words = NewWords(words)

	return r, nil
}

// Dir returns the language directory.
func (r *Records) Dir() string { return r.dir }

// GetKey returns the record key of original. Engine errors are logged and
// reported as "not found".
func (r *Records) GetKey(original string) (models.RecordKey, bool) {
	key, err := r.originals.Key(original)
	if err != nil {
		if !kvstore.IsNotFound(err) {
			r.logger.Warn("originals index lookup failed", zap.String("dir", r.dir), zap.Error(err))
		}
		return models.InvalidKey, false
	}
	return key, true
}

// CreateRecord appends a new translations record and maps original to its key.
// A failure of either half is reported; a half already written is kept.
func (r *Records) CreateRecord(original, translation string) (models.RecordKey, error) {
	key, err := r.translations.Create(translation)
	if err != nil {
		return models.InvalidKey, fmt.Errorf("failed to create translations record: %w", err)
	}
	if err := r.originals.Put(original, key); err != nil {
		return models.InvalidKey, fmt.Errorf("failed to index original for record %d: %w", key, err)
	}
	return key, nil
}

// AddTranslation appends translation to the record unless already present.
// It reports whether the record changed.
func (r *Records) AddTranslation(key models.RecordKey, translation string) (bool, error) {
	added, err := r.translations.Add(key, translation)
	if err != nil {
		return false, fmt.Errorf("failed to add translation to record %d: %w", key, err)
	}
	return added, nil
}

// ReadTranslations returns the translations of key, or nil when the key is
// unknown or unreadable. Both cases are logged, never fatal.
func (r *Records) ReadTranslations(key models.RecordKey) []string {
	list, err := r.translations.Read(key)
	if err != nil {
		if kvstore.IsNotFound(err) {
			r.logger.Warn("record missing from translations store",
				zap.String("dir", r.dir), zap.Uint64("key", uint64(key)))
		} else {
			r.logger.Error("failed to read translations",
				zap.String("dir", r.dir), zap.Uint64("key", uint64(key)), zap.Error(err))
		}
		return nil
	}
	return list
}

// ReadPostings returns the posting list of (word, length). The boolean is
// false when no list exists; err is set only for engine failures.
func (r *Records) ReadPostings(word string, length int) ([]models.RecordKey, bool, error) {
	keys, err := r.words.Postings(word, length)
	if err != nil {
		if kvstore.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return keys, true, nil
}

// AppendPosting adds key to the posting list of (word, length).
func (r *Records) AppendPosting(word string, length int, key models.RecordKey) error {
	if err := r.words.Append(word, length, key); err != nil {
		return fmt.Errorf("failed to append posting: %w", err)
	}
	return nil
}

// ForEach calls fn with every stored original and its translations.
func (r *Records) ForEach(fn func(models.Entry) error) error {
	return r.originals.ForEach(func(original string, key models.RecordKey) error {
		return fn(models.Entry{
			Key:          key,
			Original:     original,
			Translations: r.ReadTranslations(key),
		})
	})
}

// Counts returns the number of originals and posting lists.
func (r *Records) Counts() (originals, postings int, err error) {
	if originals, err = r.originals.Len(); err != nil {
		return 0, 0, err
	}
	if postings, err = r.words.Len(); err != nil {
		return 0, 0, err
	}
	return originals, postings, nil
}

// Close closes every opened store and returns the joined errors.
func (r *Records) Close() error {
	var errs []error
	if r.translations != nil {
		errs = append(errs, r.translations.Close())
		r.translations = nil
	}
	if r.originals != nil {
		errs = append(errs, r.originals.Close())
		r.originals = nil
	}
	if r.words != nil {
		errs = append(errs, r.words.Close())
		r.words = nil
	}
	return errors.Join(errs...)
}
