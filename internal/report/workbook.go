package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Synthèse"
	maxSheetName  = 31
	minColumnSize = 12
)

// ExportWorkbook writes one sheet per table section. Key-value sections are
// gathered on a leading summary sheet together with the header.
func ExportWorkbook(doc Document) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{strings.TrimPrefix(ColorHeaderFill, "#")}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	row := 1
	setRow(f, summarySheet, row, []string{doc.Header.Title})
	_ = f.SetCellStyle(summarySheet, "A1", "A1", titleStyle)
	row++
	if doc.Header.Subtitle != "" {
		setRow(f, summarySheet, row, []string{doc.Header.Subtitle})
		row++
	}
	if !doc.Header.GeneratedAt.IsZero() {
		setRow(f, summarySheet, row, []string{"Généré le", doc.Header.GeneratedAt.Format("02/01/2006 15:04")})
		row++
	}

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for _, s := range doc.Sections {
		switch s.Kind {
		case SectionKeyValue:
			row++
			setRow(f, summarySheet, row, []string{s.Title})
			_ = f.SetCellStyle(summarySheet, cell(1, row), cell(1, row), titleStyle)
			row++
			if len(s.Pairs) == 0 {
				setRow(f, summarySheet, row, []string{NoData})
				row++
			}
			for _, kv := range s.Pairs {
				setRow(f, summarySheet, row, []string{kv.Key, kv.Value})
				row++
			}

		case SectionText:
			row++
			setRow(f, summarySheet, row, []string{s.Title, s.Text})
			row++

		case SectionTable:
			name := sheetName(s.Title, used)
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("create sheet %q: %w", name, err)
			}
			if err := writeTable(f, name, s, headerStyle); err != nil {
				return nil, err
			}
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 32)
	_ = f.SetColWidth(summarySheet, "B", "B", 28)
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &buf, nil
}

func writeTable(f *excelize.File, sheet string, s SectionSpec, headerStyle int) error {
	labels := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		labels[i] = c.Label
	}
	setRow(f, sheet, 1, labels)
	if len(labels) > 0 {
		if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(labels), 1), headerStyle); err != nil {
			return fmt.Errorf("style header of %q: %w", sheet, err)
		}
	}
	if len(s.Rows) == 0 {
		setRow(f, sheet, 2, []string{NoData})
	}
	for i, r := range s.Rows {
		setRow(f, sheet, i+2, r)
	}
	for i, c := range s.Columns {
		width := c.Width / 2.5
		if width < minColumnSize {
			width = minColumnSize
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	_ = f.SetSheetRow(sheet, cell(1, row), &cells)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// sheetName trims a title to Excel's limits and keeps names unique.
func sheetName(title string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "Tableau"
	}
	name = truncateRunes(name, maxSheetName)

	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
