package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/joeydtaylor/ppdb-gateway/pkg/core"
	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"github.com/joeydtaylor/ppdb-gateway/pkg/render"
	"github.com/joeydtaylor/ppdb-gateway/pkg/store"
)

var exportSource = []string{
	"nisn", "namalengkap", "tanggallahir", "tempatlahir", "namaayah", "namaibu",
	"telepon_orang_tua", "rencanatingkat", "rencanaprogram", "alamat", "desa",
	"file_akta", "file_ijazah", "file_foto", "file_bpjs",
}

// exportColumns is the fixed report layout.
var exportColumns = []render.Column{
	{Key: "nisn", Kind: render.KindLiteral},
	{Key: "nama", Kind: render.KindWrap},
	{Key: "tanggal_lahir", Kind: render.KindDate},
	{Key: "tempat_lahir"},
	{Key: "nama_ayah"},
	{Key: "nama_ibu"},
	{Key: "nomor_orangtua", Kind: render.KindLiteral},
	{Key: "rencana_tingkat"},
	{Key: "rencana_program"},
	{Key: "alamat_lengkap", Kind: render.KindWrap},
	{Key: "file_akte"},
	{Key: "file_ijazah"},
	{Key: "file_foto"},
	{Key: "file_bpjs"},
}

func hasFile(row store.Row, key string) string {
	if strings.HasPrefix(str(row, key), "http") {
		return "YA"
	}
	return "TIDAK"
}

func exportRow(row store.Row) map[string]any {
	var parts []string
	for _, k := range []string{"alamat", "desa"} {
		if v := strings.TrimSpace(str(row, k)); v != "" {
			parts = append(parts, v)
		}
	}
	return map[string]any{
		"nisn":            str(row, "nisn"),
		"nama":            str(row, "namalengkap"),
		"tanggal_lahir":   row["tanggallahir"],
		"tempat_lahir":    str(row, "tempatlahir"),
		"nama_ayah":       str(row, "namaayah"),
		"nama_ibu":        str(row, "namaibu"),
		"nomor_orangtua":  str(row, "telepon_orang_tua"),
		"rencana_tingkat": str(row, "rencanatingkat"),
		"rencana_program": str(row, "rencanaprogram"),
		"alamat_lengkap":  strings.Join(parts, ", "),
		"file_akte":       hasFile(row, "file_akta"),
		"file_ijazah":     hasFile(row, "file_ijazah"),
		"file_foto":       hasFile(row, "file_foto"),
		"file_bpjs":       hasFile(row, "file_bpjs"),
	}
}

func (s *service) exporter(r render.Renderer) core.Handler {
	return core.HandlerFunc(func(ctx context.Context, _ *core.Request) (envelope.Response, error) {
		rows, err := s.Store.Select(ctx, store.Query{
			Table:   tablePendaftar,
			Columns: exportSource,
			OrderBy: []store.Order{{Column: "rencanaprogram"}, {Column: "namalengkap"}},
		})
		if err != nil {
			return envelope.Response{}, storeFailure(err, "")
		}
		if len(rows) == 0 {
			return envelope.Response{}, core.NotFoundf("Tidak ada data pendaftar")
		}
		t := render.Table{Sheet: s.Export.SheetName, Columns: exportColumns}
		for _, row := range rows {
			t.Rows = append(t.Rows, exportRow(row))
		}
		blob, err := r.Render(t)
		if err != nil {
			return envelope.Response{}, core.Fail(http.StatusInternalServerError, err)
		}
		name := s.Export.FilePrefix + "_" + s.now().Format("20060102") + "." + r.Extension()
		return envelope.File(name, r.ContentType(), blob), nil
	})
}
