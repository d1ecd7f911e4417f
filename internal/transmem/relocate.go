package transmem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/transmem/internal/storage"
)

// Relocate moves translation memories from a legacy root to a new one. Each
// language directory's store files are renamed, or copied and removed when a
// rename is impossible, and the emptied language directory is removed. When
// every language moved, the old root is removed too; it is never removed
// recursively. A nil langs moves every language directory found under from.
//
// A missing or identical from is not an error: there is nothing to move.
func Relocate(from, to string, langs []string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if from == "" || filepath.Clean(from) == filepath.Clean(to) || !isDir(from) {
		return nil
	}
	if langs == nil {
		var err error
		if langs, err = Languages(from); err != nil {
			return fmt.Errorf("failed to list legacy languages: %w", err)
		}
	}

	logger.Info("moving translation memory",
		zap.String("from", from), zap.String("to", to), zap.Strings("languages", langs))

	var errs []error
	for _, lang := range langs {
		src := filepath.Join(from, lang)
		if !isDir(src) {
			errs = append(errs, fmt.Errorf("language %s: %w", lang, os.ErrNotExist))
			continue
		}
		if err := moveLanguage(src, filepath.Join(to, lang)); err != nil {
			errs = append(errs, fmt.Errorf("language %s: %w", lang, err))
		}
	}
	if len(errs) == 0 {
		if err := os.Remove(from); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove legacy root: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("translation memory move incomplete",
			zap.String("from", from), zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}

func moveLanguage(from, to string) error {
	if err := os.MkdirAll(to, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", to, err)
	}
	var errs []error
	for _, name := range storage.StoreFiles {
		if err := moveFile(filepath.Join(from, name), filepath.Join(to, name)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return os.Remove(from)
}

// moveFile renames src to dst, falling back to copy and remove across volumes.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
