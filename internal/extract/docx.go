package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// wordDocumentXML is the main document part of an OOXML word file.
const wordDocumentXML = "word/document.xml"

// wordFragments returns one fragment per paragraph in document order,
// keeping empty ones: inside a table each cell holds its own paragraph, so
// a blank fragment is a blank cell and matters for reconstruction.
func wordFragments(data []byte) ([]string, error) {
	var frags []string
	var current strings.Builder
	err := walkDocument(data, func(text string, paragraphEnd bool) {
		if paragraphEnd {
			frags = append(frags, current.String())
			current.Reset()
			return
		}
		current.WriteString(text)
	})
	return frags, err
}

// wordParagraphs returns paragraph texts in document order, runs within a
// paragraph joined without separators as Word stores them.
func wordParagraphs(data []byte) ([]string, error) {
	var paras []string
	var current strings.Builder
	err := walkDocument(data, func(text string, paragraphEnd bool) {
		if paragraphEnd {
			if s := strings.TrimSpace(current.String()); s != "" {
				paras = append(paras, s)
			}
			current.Reset()
			return
		}
		current.WriteString(text)
	})
	if err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		paras = append(paras, s)
	}
	return paras, nil
}

// walkDocument streams word/document.xml, invoking visit for each <w:t>
// run and once (with paragraphEnd) at each </w:p>.
func walkDocument(data []byte, visit func(text string, paragraphEnd bool)) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open word archive: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == wordDocumentXML {
			doc = f
			break
		}
	}
	if doc == nil {
		return fmt.Errorf("word archive has no %s", wordDocumentXML)
	}

	rc, err := doc.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", wordDocumentXML, err)
	}
	defer rc.Close()

	xmlBytes, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read %s: %w", wordDocumentXML, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", wordDocumentXML, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				var v string
				if err := dec.DecodeElement(&v, &t); err != nil {
					return fmt.Errorf("decode text run: %w", err)
				}
				visit(v, false)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				visit("", true)
			}
		}
	}
}
