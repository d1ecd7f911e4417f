package main

import (
	"errors"

	"go.uber.org/zap"

	"github.com/hyperjump/transmem/internal/metrics"
	"github.com/hyperjump/transmem/internal/tmx"
	"github.com/hyperjump/transmem/internal/transmem"
)

// importer stores the pairs of TMX documents into per-language memories.
type importer struct {
	registry *transmem.Registry
	root     string
	srcLang  string
	langs    []string
	metrics  *metrics.Collector
	logger   *zap.Logger
}

func (a *app) importer(srcLang string, langs []string) *importer {
	if srcLang == "" {
		srcLang = a.cfg.Import.SourceLanguage
	}
	return &importer{
		registry: a.registry,
		root:     a.root,
		srcLang:  srcLang,
		langs:    langs,
		metrics:  a.metrics,
		logger:   a.logger,
	}
}

// importDocument stores every pair of doc for each target language and
// returns how many pairs were stored. Languages that fail to open are skipped
// and reported in the joined error.
func (imp *importer) importDocument(doc *tmx.Document) (int, error) {
	targets := imp.langs
	if len(targets) == 0 {
		targets = doc.TargetLanguages(imp.srcLang)
	}

	units := 0
	var errs []error
	for _, lang := range targets {
		pairs := doc.Pairs(lang)
		if len(pairs) == 0 {
			continue
		}
		m, err := imp.registry.Create(lang, imp.root)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stored := 0
		for _, p := range pairs {
			if m.Store(p.Source, p.Translation) {
				stored++
			}
		}
		if err := m.Release(); err != nil {
			errs = append(errs, err)
		}
		imp.logger.Debug("imported language",
			zap.String("path", doc.Path), zap.String("lang", lang),
			zap.Int("pairs", len(pairs)), zap.Int("stored", stored))
		units += stored
	}

	err := errors.Join(errs...)
	imp.metrics.ObserveImport(units, err)
	return units, err
}

// importFile parses and imports one file, logging the outcome.
func (imp *importer) importFile(path string) {
	doc, err := tmx.ParseFile(path)
	if err != nil {
		imp.metrics.ObserveImport(0, err)
		imp.logger.Warn("failed to parse tmx file", zap.String("path", path), zap.Error(err))
		return
	}
	units, err := imp.importDocument(doc)
	if err != nil {
		imp.logger.Warn("tmx import incomplete", zap.String("path", path), zap.Int("units", units), zap.Error(err))
		return
	}
	imp.logger.Info("imported tmx file", zap.String("path", path), zap.Int("units", units))
}
