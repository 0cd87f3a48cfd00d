package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX renders each sheet of an XLSX itinerary as one text slot, with
// rows on their own lines and cells tab-separated.
func extractXLSX(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			sheets = append(sheets, "")
			continue
		}
		sheets = append(sheets, sheetText(name, rows))
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	return sheets, nil
}

func sheetText(name string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('\n')
	for _, row := range rows {
		line := strings.TrimRight(strings.Join(row, "\t"), "\t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
