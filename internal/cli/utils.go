// Package cli provides CLI utilities for transmem.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/transmem/internal/models"
	"github.com/hyperjump/transmem/internal/transmem"
)

// OutputFormat is the format of command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteLookupResult writes a lookup result to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteLookupResult(w io.Writer, res *models.LookupResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	switch res.Match {
	case models.MatchExact:
		fmt.Fprintf(w, "Exact match (score %d)\n", res.Score)
	case models.MatchFuzzy:
		fmt.Fprintf(w, "Fuzzy match (score %d, %d omitted, %d extra)\n", res.Score, res.Omits, res.Delta)
	default:
		fmt.Fprintf(w, "No match for %q\n", Truncate(res.Query, 60))
		return nil
	}
	for _, t := range res.Translations {
		fmt.Fprintf(w, "  %s\n", t)
	}
	return nil
}

// WriteStats writes translation memory statistics to w.
func WriteStats(w io.Writer, stats []transmem.Stats, format OutputFormat) error {
	if format == OutputJSON {
		if stats == nil {
			stats = []transmem.Stats{}
		}
		return writeJSON(w, stats)
	}
	if len(stats) == 0 {
		fmt.Fprintln(w, "No translation memories found")
		return nil
	}
	fmt.Fprintf(w, "%-8s %10s %10s %12s  %s\n", "LANG", "ORIGINALS", "POSTINGS", "SIZE", "DIR")
	for _, s := range stats {
		fmt.Fprintf(w, "%-8s %10d %10d %12s  %s\n",
			s.Language, s.Originals, s.Postings, FormatBytes(s.DiskBytes), s.Dir)
	}
	return nil
}

// WriteEntry writes one stored original with its translations, as dumped by
// the export command in text mode.
func WriteEntry(w io.Writer, original string, translations []string) {
	fmt.Fprintf(w, "%s\n", original)
	for _, t := range translations {
		fmt.Fprintf(w, "\t-> %s\n", t)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
