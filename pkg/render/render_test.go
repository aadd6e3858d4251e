package render

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Table {
	return Table{
		Sheet: "Pendaftar",
		Columns: []Column{
			{Key: "nisn", Kind: KindLiteral},
			{Key: "nama", Kind: KindWrap},
			{Key: "tanggal_lahir", Kind: KindDate},
			{Key: "file_akte"},
		},
		Rows: []map[string]any{
			{"nisn": "0012345678", "nama": "Budi Santoso", "tanggal_lahir": "2010-03-04", "file_akte": "YA"},
			{"nisn": "0099", "nama": nil, "tanggal_lahir": "bukan tanggal", "file_akte": "TIDAK"},
		},
	}
}

func TestXLSXRender(t *testing.T) {
	r := XLSX{}
	assert.Equal(t, "xlsx", r.Extension())
	assert.Equal(t, ContentTypeXLSX, r.ContentType())

	blob, err := r.Render(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Pendaftar")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"nisn", "nama", "tanggal_lahir", "file_akte"}, rows[0])
	assert.Equal(t, "0012345678", rows[1][0])
	assert.Equal(t, "04/03/2010", rows[1][2])
	assert.Equal(t, "bukan tanggal", rows[2][2])

	w, err := f.GetColWidth("Pendaftar", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(12), w)
	// "file_akte" is the longest cell in D: 9 runes plus padding
	w, err = f.GetColWidth("Pendaftar", "D")
	require.NoError(t, err)
	assert.Equal(t, float64(11), w)

	styleID, err := f.GetCellStyle("Pendaftar", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	panes, err := f.GetPanes("Pendaftar")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, "A2", panes.TopLeftCell)
}

func TestCSVRender(t *testing.T) {
	blob, err := CSV{}.Render(sample())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(blob, []byte("\ufeff")))

	recs, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(blob), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"nisn", "nama", "tanggal_lahir", "file_akte"},
		{"0012345678", "Budi Santoso", "04/03/2010", "YA"},
		{"0099", "", "bukan tanggal", "TIDAK"},
	}, recs)
}

func TestWidthsClamp(t *testing.T) {
	cases := []struct {
		name  string
		title string
		value any
		want  float64
	}{
		{"short title and value hit the floor", "a", "yy", minWidth},
		{"eight runes plus padding is the floor", "a", "12345678", minWidth},
		{"title longer than values", "file_akte", "YA", 11},
		{"value longer than title", "a", "Budi Santoso", 14},
		{"forty eight runes reach the cap", "a", strings.Repeat("x", 48), maxWidth},
		{"forty nine runes are capped", "a", strings.Repeat("x", 49), maxWidth},
		{"long value is capped", "a", strings.Repeat("é", 80), maxWidth},
		{"nil value uses the title", "tanggal_lahir", nil, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ws := widths(Table{
				Columns: []Column{{Key: "k", Title: tc.title}},
				Rows:    []map[string]any{{"k": tc.value}},
			})
			assert.Equal(t, []float64{tc.want}, ws)
		})
	}
}
