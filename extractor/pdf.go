package extractor

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// extractPDFPages attempts direct text extraction for every page of a PDF.
// A page that cannot be parsed contributes an empty slot rather than failing
// the document; the OCR fallback decides what to do with it.
func extractPDFPages(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	total := reader.NumPage()
	if total <= 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	pages := make([]string, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

func pageText(page pdf.Page) (text string, err error) {
	// The pdf library panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf page text: %v", r)
		}
	}()
	return page.GetPlainText(nil)
}

// salvagePrintable recovers printable runes from a payload whose structure
// could not be parsed. Last resort before declaring a page image-only.
func salvagePrintable(in []byte) string {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			b := in[0]
			if b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 0x7f) {
			out.WriteRune(r)
		}
	}
	return out.String()
}
