package extractor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/voyagekit/itinscore/document"
)

// fakeRunner stands in for pdftoppm/tesseract. It writes the expected PNG so
// the rasterize-then-OCR flow runs end to end without external binaries.
type fakeRunner struct {
	ocrText string
	fail    bool
	calls   int
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls++
	if f.fail {
		return nil, []byte("boom"), errors.New("exit status 1")
	}
	if strings.Contains(name, "pdftoppm") {
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+"-1.png", []byte("png"), 0o600); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	return []byte(f.ocrText), nil, nil
}

func rawPDF(t *testing.T, pages []string) *document.RawDocument {
	t.Helper()
	doc, err := document.NewRaw("trip.pdf", buildPDF(t, pages), document.FormatPDF)
	if err != nil {
		t.Fatalf("new raw: %v", err)
	}
	return doc
}

func TestExtractDirectPDF(t *testing.T) {
	svc := New(Config{}, WithRunner(&fakeRunner{fail: true}))
	res, err := svc.Extract(context.Background(), rawPDF(t, []string{
		"Day 1: Arrive in Lisbon, check in at hotel",
		"Day 2: Sintra day trip, dinner in Cascais",
	}))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	p := res.Parsed
	if p.Method != document.MethodDirect {
		t.Fatalf("method = %s, want %s", p.Method, document.MethodDirect)
	}
	if p.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", p.Confidence)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestExtractHybridPDF(t *testing.T) {
	runner := &fakeRunner{ocrText: "Return flight: CDG to JFK, $480, July 11 2024"}
	svc := New(Config{}, WithRunner(runner))
	res, err := svc.Extract(context.Background(), rawPDF(t, []string{
		"Flight: JFK to CDG, $450, July 4 2024",
		"", // scanned page, no selectable text
	}))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	p := res.Parsed
	if p.Method != document.MethodHybrid {
		t.Fatalf("method = %s, want %s", p.Method, document.MethodHybrid)
	}
	if p.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", p.Confidence)
	}
	if !p.Pages[1].OCR {
		t.Fatal("page 2 should be tagged as OCR")
	}
	if !strings.Contains(p.Text, "JFK to CDG") || !strings.Contains(p.Text, "CDG to JFK") {
		t.Fatalf("merged text missing content: %q", p.Text)
	}
	var sawOCRWarning bool
	for _, w := range res.Warnings {
		if strings.Contains(w, "ocr fallback used on page 2") {
			sawOCRWarning = true
		}
	}
	if !sawOCRWarning {
		t.Fatalf("warnings %v missing ocr fallback notice", res.Warnings)
	}
}

func TestExtractPageFailureIsLocal(t *testing.T) {
	svc := New(Config{}, WithRunner(&fakeRunner{fail: true}))
	res, err := svc.Extract(context.Background(), rawPDF(t, []string{
		"Day 1: Arrive in Lisbon, check in at hotel",
		"",
	}))
	if err != nil {
		t.Fatalf("one readable page must not fail the document: %v", err)
	}
	if res.Parsed.Method != document.MethodDirect {
		t.Fatalf("method = %s, want direct (ocr never succeeded)", res.Parsed.Method)
	}
	if got := res.Parsed.Confidence; got != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", got)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("per-page failure must surface a warning")
	}
}

func TestExtractCorruptDocument(t *testing.T) {
	svc := New(Config{}, WithRunner(&fakeRunner{fail: true}))
	doc, err := document.NewRaw("junk.pdf", []byte("%PDF-\x00\x01\x02"), document.FormatPDF)
	if err != nil {
		t.Fatalf("new raw: %v", err)
	}
	_, err = svc.Extract(context.Background(), doc)
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("err = %v, want ErrCorruptDocument", err)
	}
}

func TestExtractWholeDocumentOCRCapped(t *testing.T) {
	// With an unparseable structure the extractor probes pages blindly, so a
	// runner that keeps succeeding must be stopped by the configured cap.
	svc := New(Config{MaxOCRPages: 3}, WithRunner(&fakeRunner{ocrText: "scanned page"}))
	doc, err := document.NewRaw("scan.pdf", []byte("%PDF-\x00\x01\x02"), document.FormatPDF)
	if err != nil {
		t.Fatalf("new raw: %v", err)
	}
	res, err := svc.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Parsed.Method != document.MethodOCR {
		t.Fatalf("method = %s, want %s", res.Parsed.Method, document.MethodOCR)
	}
	if got := len(res.Parsed.Pages); got != 3 {
		t.Fatalf("whole-document ocr produced %d pages, cap is 3", got)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	svc := New(Config{})
	doc := &document.RawDocument{ID: "x", Format: document.Format("csv")}
	_, err := svc.Extract(context.Background(), doc)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractDeterministic(t *testing.T) {
	svc := New(Config{}, WithRunner(&fakeRunner{ocrText: "scanned notes"}))
	doc := rawPDF(t, []string{"Day 1: Arrive in Lisbon, check in at hotel", ""})
	first, err := svc.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	second, err := svc.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if first.Parsed.Text != second.Parsed.Text || first.Parsed.Confidence != second.Parsed.Confidence {
		t.Fatal("extraction is not deterministic for identical bytes")
	}
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "Day")
	_ = f.SetCellValue("Sheet1", "B1", "Activity")
	_ = f.SetCellValue("Sheet1", "A2", "1")
	_ = f.SetCellValue("Sheet1", "B2", "Arrive in Lisbon")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	doc, err := document.NewRaw("trip.xlsx", buf.Bytes(), document.FormatXLSX)
	if err != nil {
		t.Fatalf("new raw: %v", err)
	}
	svc := New(Config{MinCharsPerPage: 4})
	res, err := svc.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("extract xlsx: %v", err)
	}
	if !strings.Contains(res.Parsed.Text, "Arrive in Lisbon") {
		t.Fatalf("xlsx text missing row content: %q", res.Parsed.Text)
	}
	if res.Parsed.Method != document.MethodDirect {
		t.Fatalf("method = %s, want direct", res.Parsed.Method)
	}
}
