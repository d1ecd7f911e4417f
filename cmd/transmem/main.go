// Package main is the transmem CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/transmem/internal/cli"
	"github.com/hyperjump/transmem/internal/config"
	"github.com/hyperjump/transmem/internal/kvstore"
	"github.com/hyperjump/transmem/internal/metrics"
	"github.com/hyperjump/transmem/internal/tmx"
	"github.com/hyperjump/transmem/internal/tokenizer"
	"github.com/hyperjump/transmem/internal/transmem"
	"github.com/hyperjump/transmem/internal/watcher"
	"github.com/hyperjump/transmem/pkg/utils"
)

var version = "dev"

var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "store":
		err = runStore(args, os.Stdout)
	case "lookup":
		err = runLookup(args, os.Stdout)
	case "export":
		err = runExport(args, os.Stdout)
	case "import":
		err = runImport(args, os.Stdout)
	case "watch":
		err = runWatch(args, os.Stdout)
	case "migrate":
		err = runMigrate(args, os.Stdout)
	case "status":
		err = runStatus(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("transmem version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig loads config from path. When path is the default, a config.yaml
// or config.toml in the current directory wins (for development), and a
// missing default file means built-in defaults. Returns the config and the
// path that was actually loaded, empty for defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path == config.DefaultPath {
		if cwd, err := os.Getwd(); err == nil {
			for _, name := range []string{"config.yaml", "config.toml"} {
				fallback := filepath.Join(cwd, name)
				if _, statErr := os.Stat(fallback); statErr == nil {
					cfg, loadErr := config.Load(fallback)
					if loadErr != nil {
						return nil, "", loadErr
					}
					return cfg, fallback, nil
				}
			}
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return config.Default(), "", nil
		}
		path = filepath.Join(home, strings.TrimPrefix(config.DefaultPath, "~/"))
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// reorderArgs moves any flags (and their values) that appear after the
// positional arguments to the front so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so "transmem lookup Open file
// -lang fr" would otherwise leave -lang unparsed. A "--" keeps args as given.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if a == "--" {
			return args
		}
		if len(a) > 1 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// globalFlags are accepted by every command that touches a memory.
type globalFlags struct {
	config string
	debug  bool
	root   string
}

func addGlobalFlags(fs *flag.FlagSet) *globalFlags {
	g := &globalFlags{}
	fs.StringVar(&g.config, "config", config.DefaultPath, "config file path")
	fs.BoolVar(&g.debug, "debug", false, "enable debug logging")
	fs.StringVar(&g.root, "root", "", "translation memory root (overrides storage.root_path)")
	return g
}

// app holds what a command needs to work with translation memories.
type app struct {
	cfg      *config.Config
	root     string
	logger   *zap.Logger
	registry *transmem.Registry
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
}

func (g *globalFlags) open() (*app, error) {
	cfg, resolved, err := loadConfig(g.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || g.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	backend, err := kvstore.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}

	root := cfg.Storage.RootPath
	if g.root != "" {
		root = g.root
	}
	return &app{
		cfg:    cfg,
		root:   root,
		logger: logger,
		registry: transmem.NewRegistry(
			transmem.WithLogger(logger),
			transmem.WithBackend(backend),
			transmem.WithMetrics(collector),
			transmem.WithTokenizer(tokenizer.New(cfg.Tokenizer.StopWords)),
			transmem.WithParams(cfg.Params()),
		),
		metrics:  collector,
		gatherer: reg,
	}, nil
}

func (a *app) Close() {
	if err := a.registry.Close(); err != nil {
		a.logger.Warn("failed to close translation memories", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// languages returns langs, or every language directory under the root when
// langs is empty.
func (a *app) languages(langs []string) ([]string, error) {
	if len(langs) > 0 {
		return langs, nil
	}
	return transmem.Languages(a.root)
}

func usageError(fs *flag.FlagSet, format string, args ...any) error {
	fmt.Fprintf(fs.Output(), format+"\n", args...)
	fs.Usage()
	return errUsage
}

func runStore(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lang := fs.String("lang", "", "target language code (e.g. fr, pt_BR)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: transmem store -lang <code> [flags] <original> <translation>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return errUsage
	}
	if *lang == "" || fs.NArg() != 2 {
		return usageError(fs, "store needs -lang and exactly two arguments")
	}

	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.registry.Create(*lang, a.root)
	if err != nil {
		return err
	}
	defer m.Release()

	outcome, err := m.Put(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return fmt.Errorf("failed to store translation: %w", err)
	}
	fmt.Fprintln(stdout, outcome)
	return nil
}

func runLookup(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	lang := fs.String("lang", "", "target language code")
	maxOmits := fs.Int("max-omits", -1, "query words a candidate may lack (default from config)")
	maxDelta := fs.Int("max-delta", -1, "extra words a candidate may have (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: transmem lookup -lang <code> [flags] <query>\n\n")
		fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return errUsage
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *lang == "" || query == "" {
		return usageError(fs, "lookup needs -lang and a query")
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return err
	}

	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.registry.Create(*lang, a.root)
	if err != nil {
		return err
	}
	defer m.Release()

	if *maxOmits >= 0 || *maxDelta >= 0 {
		p := m.Params()
		if *maxOmits >= 0 {
			p.MaxOmits = *maxOmits
		}
		if *maxDelta >= 0 {
			p.MaxDelta = *maxDelta
		}
		m.SetParams(p.MaxDelta, p.MaxOmits)
	}
	return cli.WriteLookupResult(stdout, m.Match(query), format)
}

func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	langs := fs.String("lang", "", "comma-separated language codes (default: every language under the root)")
	format := fs.String("format", "tmx", "export format: tmx or text")
	source := fs.String("source", "", "source language written to the TMX header (default from config)")
	output := fs.String("o", "", "write to file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: transmem export [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return errUsage
	}
	if *format != "tmx" && *format != "text" {
		return usageError(fs, "unknown export format %q", *format)
	}

	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	codes, err := a.languages(splitList(*langs))
	if err != nil {
		return err
	}
	var memories []*transmem.Memory
	defer func() {
		for _, m := range memories {
			_ = m.Release()
		}
	}()
	for _, lang := range codes {
		m, err := a.registry.Create(lang, a.root)
		if err != nil {
			a.logger.Warn("skipping translation memory", zap.String("lang", lang), zap.Error(err))
			continue
		}
		memories = append(memories, m)
	}

	w := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *output, err)
		}
		defer f.Close()
		w = f
	}

	if *format == "text" {
		for _, m := range memories {
			fmt.Fprintf(w, "# %s\n", m.Language())
			err := m.Export(func(original string, translations []string) error {
				cli.WriteEntry(w, original, translations)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}

	srcLang := *source
	if srcLang == "" {
		srcLang = a.cfg.Import.SourceLanguage
	}
	sources := make([]tmx.Source, len(memories))
	for i, m := range memories {
		sources[i] = m
	}
	units, err := tmx.Export(w, srcLang, sources...)
	if err != nil {
		return err
	}
	a.logger.Info("exported translation memories", zap.Int("units", units), zap.Strings("langs", codes))
	return nil
}

func runImport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	langs := fs.String("lang", "", "comma-separated target languages (default: every language in each file)")
	source := fs.String("source", "", "source language for files that do not name one (default from config)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: transmem import [flags] <file.tmx>...\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return usageError(fs, "import needs at least one TMX file")
	}

	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	docs, err := tmx.ParseFiles(ctx, fs.Args())
	if err != nil {
		a.metrics.ObserveImport(0, err)
		return err
	}

	imp := a.importer(*source, splitList(*langs))
	var errs []error
	for _, doc := range docs {
		units, err := imp.importDocument(doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.Path, err))
		}
		fmt.Fprintf(stdout, "%s: imported %d units\n", doc.Path, units)
	}
	return errors.Join(errs...)
}

func runWatch(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	langs := fs.String("lang", "", "comma-separated target languages (default: every language in each file)")
	source := fs.String("source", "", "source language for files that do not name one (default from config)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: transmem watch [flags] [directory...]\n\n")
		fmt.Fprintf(fs.Output(), "Directories default to import.directories from the config.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return errUsage
	}

	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = a.cfg.Import.Directories
	}
	if len(dirs) == 0 {
		return usageError(fs, "no import directories given or configured")
	}

	imp := a.importer(*source, splitList(*langs))
	w := watcher.New(dirs, a.cfg.Import.Extensions, a.cfg.Import.RecursiveOrDefault(),
		func(path string) { imp.importFile(path) },
		watcher.WithLogger(a.logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()
	w.SyncExisting()

	fmt.Fprintf(stdout, "Watching %s (Ctrl+C to stop)\n", strings.Join(w.Directories(), ", "))
	<-ctx.Done()
	a.logger.Info("shutting down")
	return nil
}

func runMigrate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	from := fs.String("from", "", "legacy translation memory root (default storage.legacy_path)")
	langs := fs.String("lang", "", "comma-separated languages to move (default: all)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: transmem migrate [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return errUsage
	}

	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	src := *from
	if src == "" {
		src = a.cfg.Storage.LegacyPath
	}
	if src == "" {
		return usageError(fs, "no legacy root given with -from or storage.legacy_path")
	}
	if err := a.registry.Relocate(src, a.root, splitList(*langs)); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", src, err)
	}
	fmt.Fprintf(stdout, "Translation memories moved from %s to %s\n", src, a.root)
	return nil
}

func runStatus(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	g := addGlobalFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text or json")
	withMetrics := fs.Bool("metrics", false, "also print process metrics in Prometheus text format")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: transmem status [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return errUsage
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		return err
	}

	a, err := g.open()
	if err != nil {
		return err
	}
	defer a.Close()

	langs, err := a.languages(nil)
	if err != nil {
		return err
	}
	var stats []transmem.Stats
	for _, lang := range langs {
		st, err := a.stats(lang)
		if err != nil {
			a.logger.Warn("skipping translation memory", zap.String("lang", lang), zap.Error(err))
			continue
		}
		stats = append(stats, st)
	}
	if err := cli.WriteStats(stdout, stats, format); err != nil {
		return err
	}
	if *withMetrics {
		return metrics.WriteText(stdout, a.gatherer)
	}
	return nil
}

func (a *app) stats(lang string) (transmem.Stats, error) {
	m, err := a.registry.Create(lang, a.root)
	if err != nil {
		return transmem.Stats{}, err
	}
	defer m.Release()
	return m.Stats()
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `transmem - translation memory with fuzzy lookup

Usage:
  transmem <command> [flags]

Commands:
  store     Record a translation: store -lang fr "Open file" "Ouvrir le fichier"
  lookup    Find the best translation: lookup -lang fr Open the file
  export    Dump memories as TMX or text
  import    Load TMX files into the memories
  watch     Import TMX files as they appear in directories
  migrate   Move memories from a legacy root into the current one
  status    Show per-language statistics
  version   Print version
  help      Show this help

Every command accepts -config, -root and -debug. Run "transmem <command> -h"
for its flags.
`)
}
