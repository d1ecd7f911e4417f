package transmem

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveDir finds the language directory of lang under root. Precedence:
// an exact match; for a two-letter code the first xx_YY sibling in name
// order; for a five-letter code its two-letter prefix. It has no side effects.
func ResolveDir(lang, root string) (string, bool) {
	if lang == "" || !isDir(root) {
		return "", false
	}

	exact := filepath.Join(root, lang)
	if isDir(exact) {
		return exact, true
	}

	switch len(lang) {
	case 5:
		prefix := filepath.Join(root, lang[:2])
		if isDir(prefix) {
			return prefix, true
		}
	case 2:
		entries, err := os.ReadDir(root)
		if err != nil {
			return "", false
		}
		// ReadDir returns entries sorted by name
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() && len(name) == 5 && strings.HasPrefix(name, lang+"_") {
				return filepath.Join(root, name), true
			}
		}
	}
	return "", false
}

// IsSupported reports whether a translation memory for lang exists under root.
func IsSupported(lang, root string) bool {
	_, ok := ResolveDir(lang, root)
	return ok
}

// DefaultRoot returns the per-user translation memory root:
// $XDG_DATA_HOME/transmem/TM, or ~/.local/share/transmem/TM.
func DefaultRoot() (string, error) {
	data := os.Getenv("XDG_DATA_HOME")
	if data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		data = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(data, "transmem", "TM"), nil
}

// Languages lists the language directories directly under root.
func Languages(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() {
			langs = append(langs, e.Name())
		}
	}
	return langs, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
