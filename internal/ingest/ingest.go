// Package ingest turns uploaded report files into text or labeled rows ready
// for extraction. PDFs are read for their text layer only; scanned images are
// not recognized.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/extractor"
)

// Format is the kind of an uploaded document
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatText Format = "txt"
)

// DefaultMaxBytes caps the size of a document when no limit is given
const DefaultMaxBytes = 10 << 20

// Document is the readable content of one file. Exactly one of Text and Rows
// is filled, depending on Format.
type Document struct {
	Name   string
	Format Format
	Text   string
	Rows   []domain.Row
	Pages  int
}

// FormatOf returns the format implied by the file extension
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return FormatPDF, nil
	case "csv":
		return FormatCSV, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(filename))
}

// Read loads a document from r. Input beyond maxBytes is rejected; a
// non-positive maxBytes selects DefaultMaxBytes.
func Read(filename string, r io.Reader, maxBytes int64) (*Document, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, domain.NewValidationError("file", fmt.Sprintf("file exceeds %d bytes", maxBytes), filename)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	doc := &Document{Name: filename, Format: format}
	switch format {
	case FormatPDF:
		doc.Text, doc.Pages, err = PDFText(data)
	case FormatCSV:
		doc.Rows, err = extractor.ReadRows(bytes.NewReader(data))
	case FormatText:
		var decoded []byte
		decoded, err = extractor.DecodeBytes(data)
		doc.Text = string(decoded)
	}
	if err != nil {
		return nil, err
	}
	if doc.Rows == nil && strings.TrimSpace(doc.Text) == "" {
		return nil, domain.ErrEmptyDocument
	}
	return doc, nil
}

// IsPDF reports whether data starts with the PDF magic bytes
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// PDFText returns the text layer of a PDF, one line per text row, with pages
// separated by a blank line.
func PDFText(data []byte) (string, int, error) {
	if !IsPDF(data) {
		return "", 0, fmt.Errorf("%w: not a PDF document", domain.ErrUnsupportedFormat)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	pageCount := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			// image-only pages have no text layer
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(text))
	}
	return b.String(), pageCount, nil
}

// pageText keeps the row structure of the page, so that a label and its value
// stay on one line.
func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return page.GetPlainText(nil)
	}
	var b strings.Builder
	for _, row := range rows {
		for i, word := range row.Content {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(word.S)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
