package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestExtractPDFPages(t *testing.T) {
	data := buildPDF(t, []string{"Day 1: Arrive in Lisbon", ""})
	pages, err := extractPDFPages(data)
	if err != nil {
		t.Fatalf("extract pdf: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[0], "Arrive in Lisbon") {
		t.Fatalf("page 1 text %q missing content", pages[0])
	}
	if strings.TrimSpace(pages[1]) != "" {
		t.Fatalf("page 2 should be empty, got %q", pages[1])
	}
}

func TestExtractPDFPagesCorrupt(t *testing.T) {
	if _, err := extractPDFPages([]byte("%PDF-1.4 garbage")); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}

func TestSalvagePrintable(t *testing.T) {
	in := append([]byte{0x00, 0x01}, []byte("Flight AB123\x02 to Porto")...)
	got := salvagePrintable(in)
	if !strings.Contains(got, "Flight AB123") || !strings.Contains(got, "to Porto") {
		t.Fatalf("salvage lost content: %q", got)
	}
	if strings.ContainsAny(got, "\x00\x01\x02") {
		t.Fatalf("salvage kept control bytes: %q", got)
	}
}

// buildPDF writes a minimal single-font PDF with one uncompressed content
// stream per page. Object offsets are recorded while writing so the xref
// table is correct by construction.
func buildPDF(t *testing.T, pageTexts []string) []byte {
	t.Helper()
	n := len(pageTexts)
	if n == 0 {
		t.Fatal("buildPDF requires at least one page")
	}
	// Object numbering: 1 catalog, 2 pages, 3 font, then per page i:
	// 4+2i page object, 5+2i content stream.
	var buf bytes.Buffer
	offsets := make([]int, 0, 3+2*n)
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, n)
	for i := 0; i < n; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), n))
	writeObj("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>\nendobj\n")

	for i, text := range pageTexts {
		pageNum := 4 + 2*i
		contentNum := 5 + 2*i
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			pageNum, contentNum))
		escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escaped)
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentNum, len(stream), stream))
	}

	xrefAt := buf.Len()
	total := len(offsets) + 1
	buf.WriteString(fmt.Sprintf("xref\n0 %d\n0000000000 65535 f \n", total))
	for _, off := range offsets {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", off))
	}
	buf.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total, xrefAt))
	return buf.Bytes()
}
