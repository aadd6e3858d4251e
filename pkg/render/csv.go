package render

import (
	"bytes"
	"encoding/csv"
)

// CSV renders a header row followed by one record per row. Dates use the
// same DD/MM/YYYY display form as the workbook.
type CSV struct{}

func (CSV) ContentType() string { return "text/csv; charset=utf-8" }
func (CSV) Extension() string   { return "csv" }

func (CSV) Render(t Table) ([]byte, error) {
	var buf bytes.Buffer
	// BOM so spreadsheet apps detect UTF-8
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)

	rec := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		rec[i] = c.title()
	}
	if err := w.Write(rec); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		for i, c := range t.Columns {
			rec[i] = text(c, row[c.Key])
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
