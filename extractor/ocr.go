package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// OCRConfig names the external tooling used by the OCR fallback. Binaries
// default to whatever is on PATH.
type OCRConfig struct {
	Pdftoppm  string
	Tesseract string
	Lang      string
	// DPI used when rasterizing a scanned page, default 300.
	DPI int
}

func (c *OCRConfig) defaults() {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
}

// ocrPDFPage rasterizes a single page of a PDF to PNG and runs OCR on the
// image. The PDF bytes are written to a temporary file because both tools
// operate on paths.
func (s *Service) ocrPDFPage(ctx context.Context, data []byte, pageNum int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "itinscore-ocr-*")
	if err != nil {
		return "", fmt.Errorf("ocr temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	pdfPath := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", fmt.Errorf("ocr write pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	page := fmt.Sprintf("%d", pageNum)
	// pdftoppm -f N -l N -r <dpi> -png doc.pdf page
	_, errb, err := s.runner.Run(ctx, s.cfg.OCR.Pdftoppm,
		"-f", page, "-l", page, "-r", fmt.Sprintf("%d", s.cfg.OCR.DPI), "-png", pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w (%s)", pageNum, err, string(errb))
	}
	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if len(images) == 0 {
		return "", fmt.Errorf("pdftoppm rendered no image for page %d", pageNum)
	}
	return s.tesseract(ctx, images[0])
}

func (s *Service) tesseract(ctx context.Context, imagePath string) (string, error) {
	out, errb, err := s.runner.Run(ctx, s.cfg.OCR.Tesseract, imagePath, "stdout", "-l", s.cfg.OCR.Lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, string(errb))
	}
	return string(out), nil
}
