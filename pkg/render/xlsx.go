package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// HeaderFill is the header row background.
const HeaderFill = "0F9D58"

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSX renders a styled workbook with a single sheet.
type XLSX struct{}

func (XLSX) ContentType() string { return ContentTypeXLSX }
func (XLSX) Extension() string   { return "xlsx" }

type xlsxStyles struct {
	header, text, literal, date, wrap int
}

func (XLSX) Render(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	st, err := newXLSXStyles(f)
	if err != nil {
		return nil, fmt.Errorf("xlsx styles: %w", err)
	}

	for i, c := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, c.title()); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
			return nil, err
		}
	}

	for r, row := range t.Rows {
		for i, c := range t.Columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := setCell(f, sheet, cell, c, row[c.Key], st); err != nil {
				return nil, fmt.Errorf("xlsx %s: %w", cell, err)
			}
		}
	}

	for i, w := range widths(t) {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet, cell string, c Column, v any, st xlsxStyles) error {
	style := st.text
	var value any = text(c, v)
	switch c.Kind {
	case KindLiteral:
		style = st.literal
	case KindWrap:
		style = st.wrap
	case KindDate:
		if t, ok := parseDate(v); ok {
			style, value = st.date, t
		}
	}
	if s, ok := value.(string); ok {
		if err := f.SetCellStr(sheet, cell, s); err != nil {
			return err
		}
	} else if err := f.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func thinBorder() []excelize.Border {
	out := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "right", "top", "bottom"} {
		out = append(out, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	return out
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var st xlsxStyles
	var err error
	dateFmt := "dd/mm/yyyy"

	if st.header, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{HeaderFill}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Border:    thinBorder(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return st, err
	}
	if st.text, err = f.NewStyle(&excelize.Style{Border: thinBorder()}); err != nil {
		return st, err
	}
	// 49 is the builtin "@" text format
	if st.literal, err = f.NewStyle(&excelize.Style{Border: thinBorder(), NumFmt: 49}); err != nil {
		return st, err
	}
	if st.date, err = f.NewStyle(&excelize.Style{Border: thinBorder(), CustomNumFmt: &dateFmt}); err != nil {
		return st, err
	}
	if st.wrap, err = f.NewStyle(&excelize.Style{
		Border:    thinBorder(),
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	}); err != nil {
		return st, err
	}
	return st, nil
}
