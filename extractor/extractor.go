package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voyagekit/itinscore/document"
)

// Config holds extraction tunables.
type Config struct {
	// MinCharsPerPage is the text-density threshold below which a page is
	// treated as scanned and handed to the OCR fallback.
	MinCharsPerPage int
	// MaxOCRPages caps how many pages whole-document OCR probes when the PDF
	// structure is unparseable and no page count is available.
	MaxOCRPages int
	OCR         OCRConfig
}

func (c *Config) defaults() {
	if c.MinCharsPerPage <= 0 {
		c.MinCharsPerPage = 16
	}
	if c.MaxOCRPages <= 0 {
		c.MaxOCRPages = 64
	}
	c.OCR.defaults()
}

// Option configures the Service.
type Option func(*Service)

// WithRunner substitutes the external command runner, for tests.
func WithRunner(r Runner) Option {
	return func(s *Service) { s.runner = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service turns raw documents into parsed text, selecting a strategy per
// format and falling back to OCR for image-only PDF pages.
type Service struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// New creates an extraction service.
func New(cfg Config, opts ...Option) *Service {
	cfg.defaults()
	s := &Service{cfg: cfg, runner: execRunner{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result carries the parsed text together with warnings accumulated from
// per-page recoveries.
type Result struct {
	Parsed   *document.ParsedText
	Warnings []string
}

// Extract produces a ParsedText for the document or fails with
// ErrUnsupportedFormat / ErrCorruptDocument. Per-page failures are recovered
// locally as empty slots plus a warning; only a document whose every page
// failed is fatal. Extraction is deterministic for identical bytes.
func (s *Service) Extract(ctx context.Context, doc *document.RawDocument) (*Result, error) {
	var (
		pages    []pageSlot
		warnings []string
		err      error
	)
	switch doc.Format {
	case document.FormatPDF:
		pages, warnings, err = s.extractPDF(ctx, doc.Data)
	case document.FormatDOCX:
		pages, warnings, err = s.extractSingleSlot(doc.Data, extractDOCX)
	case document.FormatXLSX:
		pages, warnings, err = s.extractSheets(doc.Data, extractXLSX)
	case document.FormatXLS:
		pages, warnings, err = s.extractSheets(doc.Data, extractXLS)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, doc.Format)
	}
	if err != nil {
		return nil, err
	}

	parsed, ok := assemble(doc.ID, pages)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCorruptDocument, doc.ID)
	}
	s.logger.Debug("extracted document",
		"document", doc.ID, "format", doc.Format, "method", parsed.Method,
		"pages", len(parsed.Pages), "confidence", parsed.Confidence)
	return &Result{Parsed: parsed, Warnings: warnings}, nil
}

type pageSlot struct {
	text string
	ocr  bool
}

func (s *Service) extractPDF(ctx context.Context, data []byte) ([]pageSlot, []string, error) {
	var warnings []string
	texts, err := extractPDFPages(data)
	if err != nil {
		// Structure unparseable; the whole document goes through OCR.
		warnings = append(warnings, fmt.Sprintf("pdf parse failed, ocr on whole document: %v", err))
		ocrTexts, ocrErr := s.ocrWholePDF(ctx, data)
		if ocrErr != nil {
			if salvage := CleanText(salvagePrintable(data)); len(salvage) >= s.cfg.MinCharsPerPage {
				warnings = append(warnings, "recovered printable text without page structure")
				return []pageSlot{{text: salvage}}, warnings, nil
			}
			return nil, nil, fmt.Errorf("%w: pdf parse and ocr both failed: %v", ErrCorruptDocument, ocrErr)
		}
		slots := make([]pageSlot, len(ocrTexts))
		for i, t := range ocrTexts {
			slots[i] = pageSlot{text: CleanText(t), ocr: true}
		}
		warnings = append(warnings, "ocr fallback used")
		return slots, warnings, nil
	}

	slots := make([]pageSlot, len(texts))
	for i, raw := range texts {
		text := CleanText(raw)
		if len(text) >= s.cfg.MinCharsPerPage {
			slots[i] = pageSlot{text: text}
			continue
		}
		// Low density signals a scanned page; rasterize and OCR it.
		ocrText, ocrErr := s.ocrPDFPage(ctx, data, i+1)
		if ocrErr != nil {
			slots[i] = pageSlot{text: text}
			if text == "" {
				warnings = append(warnings, fmt.Sprintf("page %d unreadable: %v", i+1, ocrErr))
			} else {
				warnings = append(warnings, fmt.Sprintf("page %d below density threshold, ocr failed: %v", i+1, ocrErr))
			}
			continue
		}
		merged := text
		if merged != "" && strings.TrimSpace(ocrText) != "" {
			merged += "\n"
		}
		merged += CleanText(ocrText)
		slots[i] = pageSlot{text: merged, ocr: true}
		warnings = append(warnings, fmt.Sprintf("ocr fallback used on page %d", i+1))
	}
	return slots, warnings, nil
}

func (s *Service) extractSingleSlot(data []byte, fn func([]byte) (string, error)) ([]pageSlot, []string, error) {
	text, err := fn(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return []pageSlot{{text: CleanText(text)}}, nil, nil
}

func (s *Service) extractSheets(data []byte, fn func([]byte) ([]string, error)) ([]pageSlot, []string, error) {
	sheets, err := fn(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	var warnings []string
	slots := make([]pageSlot, len(sheets))
	for i, sheet := range sheets {
		slots[i] = pageSlot{text: CleanText(sheet)}
		if strings.TrimSpace(slots[i].text) == "" {
			warnings = append(warnings, fmt.Sprintf("sheet %d yielded no text", i+1))
		}
	}
	return slots, warnings, nil
}

// ocrWholePDF rasterizes every page and OCRs each rendered image, used when
// the PDF structure itself cannot be parsed.
func (s *Service) ocrWholePDF(ctx context.Context, data []byte) ([]string, error) {
	var out []string
	for page := 1; page <= s.cfg.MaxOCRPages; page++ {
		text, err := s.ocrPDFPage(ctx, data, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			break
		}
		out = append(out, text)
	}
	return out, nil
}

// assemble joins page slots into a ParsedText, computing the offset map, the
// extraction method tag and the direct-extraction confidence. ok is false
// when no page contributed text.
func assemble(docID string, slots []pageSlot) (*document.ParsedText, bool) {
	var b strings.Builder
	pages := make([]document.Page, len(slots))
	var direct, viaOCR int
	for i, slot := range slots {
		if i > 0 {
			b.WriteByte('\n')
		}
		pages[i] = document.Page{Number: i + 1, Offset: b.Len(), Text: slot.text, OCR: slot.ocr}
		b.WriteString(slot.text)
		if strings.TrimSpace(slot.text) == "" {
			continue
		}
		if slot.ocr {
			viaOCR++
		} else {
			direct++
		}
	}
	if direct+viaOCR == 0 {
		return nil, false
	}
	method := document.MethodDirect
	switch {
	case direct == 0:
		method = document.MethodOCR
	case viaOCR > 0:
		method = document.MethodHybrid
	}
	return &document.ParsedText{
		DocumentID: docID,
		Text:       b.String(),
		Pages:      pages,
		Method:     method,
		Confidence: float64(direct) / float64(len(slots)),
	}, true
}
