package extractor

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
)

// extractXLS renders each sheet of a legacy XLS workbook as one text slot.
func extractXLS(data []byte) ([]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	total := wb.GetNumberSheets()
	if total == 0 {
		return nil, fmt.Errorf("xls has no sheets")
	}
	sheets := make([]string, 0, total)
	for i := 0; i < total; i++ {
		sheet, err := wb.GetSheet(i)
		if err != nil || sheet == nil {
			sheets = append(sheets, "")
			continue
		}
		var rows [][]string
		for _, row := range sheet.GetRows() {
			rows = append(rows, xlsRowValues(row.GetCols()))
		}
		sheets = append(sheets, sheetText(sheet.GetName(), rows))
	}
	return sheets, nil
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
