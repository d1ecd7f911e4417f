// Package tmx reads and writes TMX 1.4 translation memory exchange files.
package tmx

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/ianaindex"
)

// Version is the TMX version written by Export.
const Version = "1.4"

// CreationTool is written to the header of exported files.
var CreationTool = "transmem"

// xmlNamespace is the namespace of the reserved xml: prefix.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

var tuidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/hyperjump/transmem/tmx"))

// Document is a parsed TMX file.
type Document struct {
	XMLName xml.Name `xml:"tmx"`
	Version string   `xml:"version,attr"`
	Header  Header   `xml:"header"`
	Units   []Unit   `xml:"body>tu"`

	// Path is the file the document was read from, if any.
	Path string `xml:"-"`
}

// Header carries the file-level attributes.
type Header struct {
	CreationTool        string `xml:"creationtool,attr"`
	CreationToolVersion string `xml:"creationtoolversion,attr,omitempty"`
	DataType            string `xml:"datatype,attr"`
	SegType             string `xml:"segtype,attr"`
	AdminLang           string `xml:"adminlang,attr"`
	SrcLang             string `xml:"srclang,attr"`
	OTMF                string `xml:"o-tmf,attr"`
}

// Unit is a translation unit: one segment in several languages.
type Unit struct {
	XMLName  xml.Name  `xml:"tu"`
	TUID     string    `xml:"tuid,attr,omitempty"`
	SrcLang  string    `xml:"srclang,attr,omitempty"`
	Variants []Variant `xml:"tuv"`
}

// Variant is the text of a unit in one language.
type Variant struct {
	Lang    string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Segment string `xml:"seg"`
}

// Pair is a source segment with one translation of it.
type Pair struct {
	Source      string
	Translation string
}

// Parse decodes a TMX document. Encodings other than UTF-8 are converted when
// the XML declaration names an IANA character set.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode tmx: %w", err)
	}
	return &doc, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Pairs returns the (source, translation) pairs of every unit that has a
// variant in lang. The source variant is the one in the unit's or header's
// source language, or the first variant in another language when the source
// language is unset or "*all*".
func (d *Document) Pairs(lang string) []Pair {
	var out []Pair
	for _, u := range d.Units {
		srcLang := u.SrcLang
		if srcLang == "" {
			srcLang = d.Header.SrcLang
		}
		src, ok := u.variant(srcLang, lang)
		if !ok {
			continue
		}
		for _, v := range u.Variants {
			if !SameLanguage(v.Lang, lang) || v.Segment == "" {
				continue
			}
			out = append(out, Pair{Source: src, Translation: v.Segment})
		}
	}
	return out
}

// TargetLanguages returns the sorted, distinct language codes of every
// variant that is not in its unit's source language. defaultSrc stands in
// when neither the unit nor the header names a source language.
func (d *Document) TargetLanguages(defaultSrc string) []string {
	headerSrc := d.Header.SrcLang
	if headerSrc == "" || headerSrc == "*all*" {
		headerSrc = defaultSrc
	}
	seen := make(map[string]bool)
	var out []string
	for _, u := range d.Units {
		src := u.SrcLang
		if src == "" || src == "*all*" {
			src = headerSrc
		}
		for _, v := range u.Variants {
			if v.Lang == "" || SameLanguage(v.Lang, src) {
				continue
			}
			if code := Code(v.Lang); !seen[code] {
				seen[code] = true
				out = append(out, code)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (u *Unit) variant(srcLang, target string) (string, bool) {
	if srcLang != "" && srcLang != "*all*" {
		for _, v := range u.Variants {
			if SameLanguage(v.Lang, srcLang) && v.Segment != "" {
				return v.Segment, true
			}
		}
		return "", false
	}
	for _, v := range u.Variants {
		if !SameLanguage(v.Lang, target) && v.Segment != "" {
			return v.Segment, true
		}
	}
	return "", false
}

// TUID returns the stable unit id of a (language, source, translation) triple.
func TUID(lang, source, translation string) string {
	name := strings.Join([]string{lang, source, translation}, "\x00")
	return uuid.NewSHA1(tuidNamespace, []byte(name)).String()
}
