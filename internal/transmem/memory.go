package transmem

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/transmem/internal/kvstore"
	"github.com/hyperjump/transmem/internal/metrics"
	"github.com/hyperjump/transmem/internal/models"
	"github.com/hyperjump/transmem/internal/search"
	"github.com/hyperjump/transmem/internal/storage"
)

// Memory is the translation memory of one language. It is a shared handle
// obtained from Registry.Create and given back with Release.
//
// Writes are serialized; lookups may run concurrently with each other.
type Memory struct {
	registry *Registry
	lang     string
	dir      string
	refs     int // guarded by registry.mu

	mu      sync.RWMutex
	records *storage.Records
	engine  *search.Engine
	closed  bool

	logger  *zap.Logger
	metrics *metrics.Collector
}

// Stats summarizes the contents of a memory.
type Stats struct {
	Language  string `json:"language"`
	Dir       string `json:"dir"`
	Originals int    `json:"originals"`
	Postings  int    `json:"postings"`
	DiskBytes int64  `json:"disk_bytes"`
}

// Language returns the language code the memory was first opened with.
func (m *Memory) Language() string { return m.lang }

// Dir returns the resolved language directory.
func (m *Memory) Dir() string { return m.dir }

// Store records translation as a translation of original. A new original gets
// a new record and is indexed by its words; a known one gets translation
// appended unless already present. Failures are logged and reported as false.
func (m *Memory) Store(original, translation string) bool {
	outcome, err := m.Put(original, translation)
	if err != nil {
		m.logger.Warn("failed to store translation", zap.String("original", original), zap.Error(err))
		return false
	}
	return outcome != metrics.StoreFailed
}

// Put is Store with the outcome and error exposed.
func (m *Memory) Put(original, translation string) (metrics.StoreOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcome, err := m.put(original, translation)
	if err != nil {
		outcome = metrics.StoreFailed
	}
	m.metrics.ObserveStore(m.lang, outcome)
	return outcome, err
}

func (m *Memory) put(original, translation string) (metrics.StoreOutcome, error) {
	if m.closed {
		return metrics.StoreFailed, ErrReleased
	}

	if key, ok := m.records.GetKey(original); ok {
		added, err := m.records.AddTranslation(key, translation)
		if err != nil {
			return metrics.StoreFailed, err
		}
		if !added {
			return metrics.StoreUnchanged, nil
		}
		return metrics.StoreAppended, nil
	}

	key, err := m.records.CreateRecord(original, translation)
	if err != nil {
		return metrics.StoreFailed, err
	}
	// record keys only grow, so appending keeps every posting list sorted
	words := m.engine.Tokenizer().Tokenize(original)
	for _, w := range words {
		if err := m.records.AppendPosting(w, len(words), key); err != nil {
			return metrics.StoreFailed, fmt.Errorf("failed to index %q: %w", w, err)
		}
	}
	return metrics.StoreCreated, nil
}

// Lookup returns the score (100 exact, 1..99 fuzzy, 0 none) and the
// translations of the best match found for query.
func (m *Memory) Lookup(query string) (int, []string) {
	res := m.Match(query)
	return res.Score, res.Translations
}

// Match is Lookup returning the full result.
func (m *Memory) Match(query string) *models.LookupResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		m.logger.Warn("lookup on released translation memory")
		return &models.LookupResult{Query: query, Match: models.MatchNone}
	}
	res := m.engine.Lookup(query)
	m.metrics.ObserveLookup(m.lang, res)
	return res
}

// SetParams overrides the fuzzy tolerances of this memory.
func (m *Memory) SetParams(maxDelta, maxOmits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.SetParams(search.Params{MaxOmits: maxOmits, MaxDelta: maxDelta})
}

// Params returns the current fuzzy tolerances.
func (m *Memory) Params() search.Params {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine.Params()
}

// Export calls fn with every original and its translations.
func (m *Memory) Export(fn func(original string, translations []string) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrReleased
	}
	return m.records.ForEach(func(e models.Entry) error {
		return fn(e.Original, e.Translations)
	})
}

// Stats counts the stored originals and posting lists.
func (m *Memory) Stats() (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Stats{}, ErrReleased
	}

	st := Stats{Language: m.lang, Dir: m.dir}
	var err error
	if st.Originals, st.Postings, err = m.records.Counts(); err != nil {
		return Stats{}, fmt.Errorf("failed to count entries: %w", err)
	}
	if st.DiskBytes, err = kvstore.DiskUsageBytes(storage.Paths(m.dir)...); err != nil {
		return Stats{}, fmt.Errorf("failed to measure disk usage: %w", err)
	}
	return st, nil
}

// Release drops one reference. The stores are closed with the last one.
func (m *Memory) Release() error {
	return m.registry.release(m)
}

func (m *Memory) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.metrics.InstanceClosed()
	if err := m.records.Close(); err != nil {
		m.logger.Error("failed to close translation memory", zap.String("dir", m.dir), zap.Error(err))
		return err
	}
	m.logger.Debug("closed translation memory", zap.String("dir", m.dir))
	return nil
}
