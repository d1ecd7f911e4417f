// Package transmem is the translation memory facade: a registry of
// reference-counted per-language memories, each owning the three stores of
// one language directory and a search engine over them.
package transmem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/transmem/internal/kvstore"
	"github.com/hyperjump/transmem/internal/metrics"
	"github.com/hyperjump/transmem/internal/search"
	"github.com/hyperjump/transmem/internal/storage"
	"github.com/hyperjump/transmem/internal/tokenizer"
)

var (
	// ErrReleased is returned when using a memory after its last release.
	ErrReleased = errors.New("translation memory released")
	// ErrInUse is returned when relocating while memories are open.
	ErrInUse = errors.New("translation memory in use")
)

var _ search.Index = (*storage.Records)(nil)

// Registry hands out shared Memory instances, one per resolved language
// directory. Language codes that resolve to the same directory share one
// instance. It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Memory // by dir

	logger    *zap.Logger
	backend   kvstore.Backend
	metrics   *metrics.Collector
	tokenizer *tokenizer.Tokenizer
	params    search.Params
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger shared by every memory.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBackend selects the KV engine for newly opened memories.
func WithBackend(b kvstore.Backend) Option {
	return func(r *Registry) {
		if b != "" {
			r.backend = b
		}
	}
}

// WithMetrics records lookups, stores and open instances on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Registry) { r.metrics = c }
}

// WithTokenizer sets the tokenizer used for both indexing and lookup.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(r *Registry) {
		if t != nil {
			r.tokenizer = t
		}
	}
}

// WithParams sets the initial fuzzy tolerances of newly opened memories.
func WithParams(p search.Params) Option {
	return func(r *Registry) { r.params = p }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		instances: make(map[string]*Memory),
		logger:    zap.NewNop(),
		backend:   kvstore.BackendBolt,
		tokenizer: tokenizer.Default(),
		params:    search.DefaultParams(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsSupported reports whether a memory for lang already exists under root.
func (r *Registry) IsSupported(lang, root string) bool {
	return IsSupported(lang, root)
}

// Create returns the memory of lang under root, opening it on first request.
// Without a resolvable language directory, <root>/<lang> is created. Every
// successful Create must be paired with a Release. A memory already open for
// the same directory is shared, even when it was created for another code.
//
// A directory holding only some of the store files fails with
// storage.ErrIncompleteStore; callers are expected to carry on without
// translation memory support.
func (r *Registry) Create(lang, root string) (*Memory, error) {
	if lang == "" {
		return nil, errors.New("language is required")
	}
	dir, ok := ResolveDir(lang, root)
	if !ok {
		dir = filepath.Join(root, lang)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create translation memory directory: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.instances[dir]; ok {
		m.refs++
		return m, nil
	}

	state, err := storage.Inspect(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", dir, err)
	}
	if state == storage.StatePartial {
		r.logger.Warn("translation memory directory is incomplete",
			zap.String("lang", lang), zap.String("dir", dir))
		return nil, fmt.Errorf("%s: %w", dir, storage.ErrIncompleteStore)
	}

	logger := r.logger.With(zap.String("lang", lang))
	records, err := storage.Open(dir, r.backend, storage.WithLogger(logger))
	if err != nil {
		logger.Error("failed to open translation memory", zap.String("dir", dir), zap.Error(err))
		return nil, fmt.Errorf("failed to open translation memory for %s: %w", lang, err)
	}

	m := &Memory{
		registry: r,
		lang:     lang,
		dir:      dir,
		refs:     1,
		records:  records,
		logger:   logger,
		metrics:  r.metrics,
	}
	m.engine = search.NewEngine(records,
		search.WithLogger(logger),
		search.WithTokenizer(r.tokenizer),
		search.WithParams(r.params),
		search.WithTrialFunc(func(_, _ int, hit bool) { r.metrics.ObserveTrial(hit) }),
	)
	r.instances[dir] = m
	r.metrics.InstanceOpened()

	logger.Debug("opened translation memory",
		zap.String("dir", dir), zap.String("backend", string(r.backend)), zap.Stringer("state", state))
	return m, nil
}

// Len returns the number of open memories.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Relocate moves memories from a legacy root; it refuses while any memory is open.
func (r *Registry) Relocate(from, to string, langs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.instances) > 0 {
		return ErrInUse
	}
	return Relocate(from, to, langs, r.logger)
}

// Close closes every open memory regardless of its reference count. It is
// meant for process shutdown.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for dir, m := range r.instances {
		m.refs = 0
		if err := m.close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", m.lang, err))
		}
		delete(r.instances, dir)
	}
	return errors.Join(errs...)
}

func (r *Registry) release(m *Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.refs == 0 {
		return ErrReleased
	}
	m.refs--
	if m.refs > 0 {
		return nil
	}
	delete(r.instances, m.dir)
	return m.close()
}
