// Package workbook reads and writes data dictionaries as Excel workbooks.
package workbook

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-dictionary/pkg/models"
)

const (
	// TableStyle is the Excel table style applied to every written sheet.
	TableStyle = "TableStyleMedium9"
	// ContentType is the MIME type of .xlsx files.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	tableNamePrefix = "Table_"
	maxSheetName    = 31
)

// ReadTable loads one sheet of an .xlsx stream as a table named tableName. An empty sheet name
// selects the first sheet. The first row is the header (see headerNames). Rows without any value
// are skipped and empty cells are absent.
func ReadTable(r io.Reader, sheet, tableName string) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", apperrors.ErrInvalidInput, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheet", apperrors.ErrSheetNotFound)
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrSheetNotFound, sheet)
	}

	return readSheet(f, sheet, tableName)
}

// ReadAll loads every sheet of an .xlsx stream, in workbook order. Each table is named after
// its sheet.
func ReadAll(r io.Reader) ([]*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", apperrors.ErrInvalidInput, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	tables := make([]*models.Table, 0, len(sheets))
	for _, sheet := range sheets {
		t, err := readSheet(f, sheet, sheet)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func readSheet(f *excelize.File, sheet, tableName string) (*models.Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return models.NewTable(tableName), nil
	}

	table := models.NewTable(tableName, headerNames(rows[0])...)
	header := table.Columns()

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cells := make([]models.Cell, len(header))
		for i := 0; i < len(header) && i < len(row); i++ {
			cells[i] = models.OptionalText(row[i])
		}
		table.AppendRow(cells...)
	}
	return table, nil
}

// headerNames trims the header row, names blank headers "Unnamed: <index>" and renames repeated
// names to "<name>.1", "<name>.2" and so on, so that every column keeps its own cells.
func headerNames(row []string) []string {
	header := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[h]; dup {
			name := h
			for {
				h = fmt.Sprintf("%s.%d", name, n)
				n++
				if _, taken := seen[h]; !taken {
					break
				}
			}
			seen[name] = n
		}
		seen[h] = 1
		header[i] = h
	}
	return header
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Write renders tables as an .xlsx stream, one sheet per table in the given order. Each sheet
// holds a formatted Excel table named Table_<sheet> covering the header and every row.
func Write(w io.Writer, tables []*models.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	defaultSheet := f.GetSheetName(0)
	seen := make(map[string]struct{}, len(tables))
	for i, t := range tables {
		sheet := sheetName(t.Name)
		if _, dup := seen[sheet]; dup {
			return fmt.Errorf("%w: %q", apperrors.ErrDuplicateTable, sheet)
		}
		seen[sheet] = struct{}{}

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("rename sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, t); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *models.Table) error {
	columns := t.Columns()
	if len(columns) == 0 {
		return nil
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}

	for i := 0; i < t.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := t.Row(i)
		values := make([]interface{}, len(row))
		for j, c := range row {
			if !c.IsNull() {
				values[j] = c.String()
			}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, sheet, err)
		}
	}

	// an Excel table needs at least one data row
	lastRow := t.Len() + 1
	if t.Len() == 0 {
		lastRow = 2
	}
	lastCell, err := excelize.CoordinatesToCellName(len(columns), lastRow)
	if err != nil {
		return err
	}
	stripes := true
	if err := f.AddTable(sheet, &excelize.Table{
		Range:          "A1:" + lastCell,
		Name:           TableName(sheet),
		StyleName:      TableStyle,
		ShowRowStripes: &stripes,
	}); err != nil {
		return fmt.Errorf("format table on %q: %w", sheet, err)
	}
	return nil
}

// TableName returns the Excel table name used for a sheet: Table_ followed by the sheet name
// with every character that is not a letter, digit or underscore replaced by an underscore.
func TableName(sheet string) string {
	var b strings.Builder
	b.WriteString(tableNamePrefix)
	for _, r := range sheet {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func sheetName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Sheet"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
