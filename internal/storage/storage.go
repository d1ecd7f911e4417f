// Package storage implements the three per-language stores of a translation
// memory on top of kvstore: the translations store (record key -> translation
// list), the originals index (source string -> record key) and the words index
// ((word, sentence length) -> sorted record keys).
package storage

import (
	"errors"
	"os"
	"path/filepath"
)

// Fixed store file names inside a language directory.
const (
	TranslationsFile = "translations.db"
	OriginalsFile    = "strings.db"
	WordsFile        = "words.db"
)

// StoreFiles lists every file a complete language directory holds.
var StoreFiles = []string{TranslationsFile, OriginalsFile, WordsFile}

var (
	// ErrUnsortedPosting is returned when appending a record key that is not
	// greater than the last key of the posting list.
	ErrUnsortedPosting = errors.New("posting key out of order")

	// ErrIncompleteStore is returned for a language directory that holds some
	// but not all of the store files.
	ErrIncompleteStore = errors.New("incomplete translation memory store")
)

// State describes which store files exist in a language directory.
type State int

const (
	// StateEmpty means none of the store files exist; they are created on open.
	StateEmpty State = iota
	// StateComplete means all store files exist.
	StateComplete
	// StatePartial means only some store files exist; the directory is not a valid TM.
	StatePartial
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateComplete:
		return "complete"
	default:
		return "partial"
	}
}

// Inspect reports the State of dir. A missing directory is StateEmpty.
func Inspect(dir string) (State, error) {
	present := 0
	for _, name := range StoreFiles {
		_, err := os.Stat(filepath.Join(dir, name))
		switch {
		case err == nil:
			present++
		case os.IsNotExist(err):
		default:
			return StatePartial, err
		}
	}
	switch present {
	case 0:
		return StateEmpty, nil
	case len(StoreFiles):
		return StateComplete, nil
	default:
		return StatePartial, nil
	}
}

// Paths returns the store file paths of dir.
func Paths(dir string) []string {
	out := make([]string, len(StoreFiles))
	for i, name := range StoreFiles {
		out[i] = filepath.Join(dir, name)
	}
	return out
}
