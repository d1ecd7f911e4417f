package tmx

import (
	"strings"

	"golang.org/x/text/language"
)

// Tag converts a translation memory language code (pt_BR) to a BCP 47 tag
// (pt-BR). Unparseable codes are returned with underscores replaced.
func Tag(code string) string {
	s := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	t, err := language.Parse(s)
	if err != nil {
		return s
	}
	return t.String()
}

// Code converts a BCP 47 tag (pt-BR, pt-Latn-BR) to the language code used
// for translation memory directories (pt_BR). Only the base language and an
// explicit region are kept.
func Code(tag string) string {
	s := strings.ReplaceAll(strings.TrimSpace(tag), "_", "-")
	t, err := language.Parse(s)
	if err != nil {
		return strings.ReplaceAll(s, "-", "_")
	}
	base, _ := t.Base()
	if region, conf := t.Region(); conf == language.Exact {
		return base.String() + "_" + region.String()
	}
	return base.String()
}

// SameLanguage reports whether two tags name the same language. A tag without
// a region matches every regional variant of its language.
func SameLanguage(a, b string) bool {
	ca, cb := Code(a), Code(b)
	if ca == cb {
		return true
	}
	baseA, regionA, _ := strings.Cut(ca, "_")
	baseB, regionB, _ := strings.Cut(cb, "_")
	return baseA == baseB && (regionA == "" || regionB == "")
}
