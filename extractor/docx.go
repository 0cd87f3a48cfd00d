package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// extractDOCX pulls paragraph text from a DOCX payload. Word documents carry
// no page boundaries in their markup, so the whole body maps to one slot.
func extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}
	var body *zip.File
	for _, f := range reader.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("docx container has no word/document.xml")
	}
	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open word/document.xml: %w", err)
	}
	defer rc.Close()
	return docxBodyText(rc), nil
}

func docxBodyText(r io.Reader) string {
	dec := xml.NewDecoder(r)
	var buf bytes.Buffer
	var lastWasNewline bool
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t", "instrText":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					buf.WriteString(text)
					lastWasNewline = false
				}
			case "tab":
				buf.WriteByte('\t')
				lastWasNewline = false
			case "br", "cr":
				buf.WriteByte('\n')
				lastWasNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				if !lastWasNewline {
					buf.WriteByte('\n')
					lastWasNewline = true
				}
			case "tc":
				if !lastWasNewline {
					buf.WriteByte('\t')
					lastWasNewline = false
				}
			}
		}
	}
	return buf.String()
}
