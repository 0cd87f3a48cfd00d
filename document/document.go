package document

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the declared or sniffed document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Method tags how text was obtained from a document.
type Method string

const (
	// MethodDirect means every page yielded text without OCR.
	MethodDirect Method = "direct-text"
	// MethodOCR means every non-empty page required OCR.
	MethodOCR Method = "ocr"
	// MethodHybrid means a mix of direct and OCR pages.
	MethodHybrid Method = "hybrid"
)

// RawDocument is an immutable ingested document. The ID is derived from the
// byte payload, so identical bytes always produce the same document identity.
type RawDocument struct {
	ID     string
	Name   string
	Format Format
	Data   []byte
}

// NewRaw builds a RawDocument from a payload and a declared format.
func NewRaw(name string, data []byte, format Format) (*RawDocument, error) {
	id, err := Hash(data)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	return &RawDocument{ID: id, Name: name, Format: format, Data: data}, nil
}

// SniffFormat resolves a document format from its name and leading bytes.
// The extension wins when recognized; otherwise magic bytes decide.
func SniffFormat(name string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return FormatPDF, nil
	}
	if bytes.HasPrefix(data, []byte{0x50, 0x4b, 0x03, 0x04}) {
		// Zip container; DOCX and XLSX share it. Without an extension the
		// package part names decide, which the extractor re-checks anyway.
		if bytes.Contains(data, []byte("word/")) {
			return FormatDOCX, nil
		}
		if bytes.Contains(data, []byte("xl/")) {
			return FormatXLSX, nil
		}
		return FormatDOCX, nil
	}
	if bytes.HasPrefix(data, []byte{0xd0, 0xcf, 0x11, 0xe0}) {
		return FormatXLS, nil
	}
	return "", fmt.Errorf("unrecognized document format for %q", name)
}

// Page holds the extracted text slot for one page or section.
type Page struct {
	Number int
	// Offset is the start of this page's text within ParsedText.Text.
	Offset int
	Text   string
	// OCR marks the slot as produced by the OCR fallback.
	OCR bool
}

// ParsedText is the extraction output for a single pipeline run.
type ParsedText struct {
	DocumentID string
	Text       string
	Pages      []Page
	Method     Method
	// Confidence is the fraction of pages that yielded text without the OCR
	// fallback, in [0,1].
	Confidence float64
}

// Empty reports whether no page contributed any text.
func (p *ParsedText) Empty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// PageAt returns the page containing the given offset into Text.
func (p *ParsedText) PageAt(offset int) *Page {
	for i := len(p.Pages) - 1; i >= 0; i-- {
		if offset >= p.Pages[i].Offset {
			return &p.Pages[i]
		}
	}
	return nil
}
