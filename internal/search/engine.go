// Package search implements translation memory lookup: an exact match on the
// originals index first, then a bounded fuzzy search over the words index.
//
// A fuzzy trial (omits, delta) looks for stored sentences that contain all but
// exactly omits of the query words. Trials run from the strictest tolerance to
// the loosest and the first trial with a non-empty result wins, so the result
// is the first match of a deterministic search, not the globally best one.
package search

import (
	"go.uber.org/zap"

	"github.com/hyperjump/transmem/internal/models"
	"github.com/hyperjump/transmem/internal/tokenizer"
)

// Index is the read side of a translation memory's stores.
type Index interface {
	// GetKey returns the record key of an exact source string.
	GetKey(original string) (models.RecordKey, bool)
	// ReadTranslations returns the translations of a record, nil if unknown.
	ReadTranslations(key models.RecordKey) []string
	// ReadPostings returns the posting list of (word, sentence length). The
	// boolean is false when no list exists.
	ReadPostings(word string, length int) ([]models.RecordKey, bool, error)
}

// Params bounds the fuzzy search.
type Params struct {
	// MaxOmits is the number of query words that may go unmatched.
	MaxOmits int `json:"max_omits" yaml:"max_omits" toml:"max_omits"`
	// MaxDelta is the number of extra words a matched sentence may have.
	MaxDelta int `json:"max_delta" yaml:"max_delta" toml:"max_delta"`
}

// Default tolerances.
const (
	DefaultMaxOmits = 2
	DefaultMaxDelta = 2
)

// DefaultParams returns the default tolerances.
func DefaultParams() Params {
	return Params{MaxOmits: DefaultMaxOmits, MaxDelta: DefaultMaxDelta}
}

// TrialFunc observes every fuzzy trial probe.
type TrialFunc func(omits, length int, hit bool)

// Engine runs lookups against an Index. It holds no locks; the index decides
// what concurrent access it tolerates.
type Engine struct {
	index     Index
	tokenizer *tokenizer.Tokenizer
	params    Params
	logger    *zap.Logger
	onTrial   TrialFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for engine errors met during a trial.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTokenizer sets the tokenizer; it must match the one used when storing.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tokenizer = t
		}
	}
}

// WithParams overrides the default tolerances.
func WithParams(p Params) Option {
	return func(e *Engine) { e.SetParams(p) }
}

// WithTrialFunc registers a callback run after every trial probe.
func WithTrialFunc(fn TrialFunc) Option {
	return func(e *Engine) { e.onTrial = fn }
}

// NewEngine creates an engine over index.
func NewEngine(index Index, opts ...Option) *Engine {
	e := &Engine{
		index:     index,
		tokenizer: tokenizer.Default(),
		params:    DefaultParams(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetParams overrides the tolerances. Negative values are treated as 0.
func (e *Engine) SetParams(p Params) {
	e.params = Params{MaxOmits: max(p.MaxOmits, 0), MaxDelta: max(p.MaxDelta, 0)}
}

// Params returns the current tolerances.
func (e *Engine) Params() Params {
	return e.params
}

// Tokenizer returns the tokenizer queries are split with.
func (e *Engine) Tokenizer() *tokenizer.Tokenizer {
	return e.tokenizer
}

// Lookup returns the translations of query: score 100 for an exact match,
// 1..99 for a fuzzy match and 0 with no translations when nothing matched.
func (e *Engine) Lookup(query string) *models.LookupResult {
	res := &models.LookupResult{Query: query, Match: models.MatchNone}

	if key, ok := e.index.GetKey(query); ok {
		// a key without translations is a store anomaly; fall through to fuzzy
		if translations := e.index.ReadTranslations(key); len(translations) > 0 {
			res.Score = models.ExactScore
			res.Match = models.MatchExact
			res.Translations = translations
			return res
		}
	}

	words := e.tokenizer.Tokenize(query)
	n := len(words)
	p := e.params
	for omits := 0; omits <= p.MaxOmits; omits++ {
		for delta := 0; delta <= p.MaxDelta; delta++ {
			translations, ok := e.trial(words, omits, n+delta)
			if !ok && delta < omits {
				// omitted query words may also be missing from the candidate
				translations, ok = e.trial(words, omits, n+delta-omits)
			}
			if ok {
				res.Score = Score(p, omits, delta)
				res.Match = models.MatchFuzzy
				res.Translations = translations
				res.Omits = omits
				res.Delta = delta
				return res
			}
		}
	}
	return res
}

// Score maps the tolerances of a successful trial to 1..99. Stricter trials
// score higher; omits weigh more than delta.
func Score(p Params, omits, delta int) int {
	score := (p.MaxOmits-omits)*100/(p.MaxOmits+1) +
		(p.MaxDelta-delta)*100/((p.MaxDelta+1)*(p.MaxOmits+1))
	return max(score, models.MinFuzzyScore)
}

// trial looks for sentences of exactly length indexed words that contain all
// but omits of words.
func (e *Engine) trial(words []string, omits, length int) ([]string, bool) {
	translations, ok := e.probe(words, omits, length)
	if e.onTrial != nil {
		e.onTrial(omits, length, ok)
	}
	return translations, ok
}

func (e *Engine) probe(words []string, omits, length int) ([]string, bool) {
	n := len(words)
	// omitting every word would match all sentences of that length
	if omits >= n || length <= 0 {
		return nil, false
	}

	lists := make([][]models.RecordKey, 0, n)
	missing := 0
	for _, w := range words {
		keys, ok, err := e.index.ReadPostings(w, length)
		if err != nil {
			e.logger.Warn("failed to read postings",
				zap.String("word", w), zap.Int("length", length), zap.Error(err))
			return nil, false
		}
		if !ok {
			missing++
			continue
		}
		lists = append(lists, keys)
	}
	if missing > omits || missing >= n {
		return nil, false
	}
	// words without postings are omitted for free
	omits -= missing

	active := make([]bool, len(lists))
	if omits == 0 {
		for i := range active {
			active[i] = true
		}
		if keys, ok := Intersect(lists, active); ok {
			return e.collect(keys), true
		}
		return nil, false
	}

	for excluded := range Combinations(len(lists), omits) {
		for i := range active {
			active[i] = true
		}
		for _, i := range excluded {
			active[i] = false
		}
		if keys, ok := Intersect(lists, active); ok {
			return e.collect(keys), true
		}
	}
	return nil, false
}

// collect gathers the translations of keys in key order, dropping duplicates
// shared by several records.
func (e *Engine) collect(keys []models.RecordKey) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, key := range keys {
		for _, t := range e.index.ReadTranslations(key) {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
