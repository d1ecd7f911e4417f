package tmx

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Source is a translation memory that can enumerate its contents.
type Source interface {
	Language() string
	Export(fn func(original string, translations []string) error) error
}

// Export writes every (original, translation) pair of sources as one TMX
// document with srcLang as the source language. It returns the number of
// units written.
func Export(w io.Writer, srcLang string, sources ...Source) (int, error) {
	srcTag := Tag(srcLang)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return 0, err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "tmx"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: Version}},
	}
	body := xml.StartElement{Name: xml.Name{Local: "body"}}
	header := Header{
		CreationTool: CreationTool,
		DataType:     "PlainText",
		SegType:      "sentence",
		AdminLang:    "en",
		SrcLang:      srcTag,
		OTMF:         "transmem",
	}

	if err := enc.EncodeToken(root); err != nil {
		return 0, fmt.Errorf("failed to write tmx: %w", err)
	}
	if err := enc.EncodeElement(header, xml.StartElement{Name: xml.Name{Local: "header"}}); err != nil {
		return 0, fmt.Errorf("failed to write tmx header: %w", err)
	}
	if err := enc.EncodeToken(body); err != nil {
		return 0, fmt.Errorf("failed to write tmx: %w", err)
	}

	units := 0
	for _, src := range sources {
		lang := Tag(src.Language())
		err := src.Export(func(original string, translations []string) error {
			for _, t := range translations {
				u := Unit{
					TUID: TUID(lang, original, t),
					Variants: []Variant{
						{Lang: srcTag, Segment: original},
						{Lang: lang, Segment: t},
					},
				}
				if err := enc.Encode(u); err != nil {
					return err
				}
				units++
			}
			return nil
		})
		if err != nil {
			return units, fmt.Errorf("failed to export %s: %w", src.Language(), err)
		}
	}

	if err := enc.EncodeToken(body.End()); err != nil {
		return units, fmt.Errorf("failed to write tmx: %w", err)
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return units, fmt.Errorf("failed to write tmx: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return units, fmt.Errorf("failed to write tmx: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return units, err
}
