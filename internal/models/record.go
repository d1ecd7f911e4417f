// Package models defines the core data types of the translation memory.
package models

// RecordKey identifies one stored source string and its translations. Keys are
// assigned by the translations store, start at 1, only ever increase and are
// never reused; posting lists rely on this to stay sorted without re-sorting.
type RecordKey uint64

// InvalidKey is never assigned to a record.
const InvalidKey RecordKey = 0

// Entry is one source string with all translations attested for it.
type Entry struct {
	Key          RecordKey `json:"key"`
	Original     string    `json:"original"`
	Translations []string  `json:"translations"`
}
