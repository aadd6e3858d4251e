// Package handlers holds the registration-portal actions served by the
// dispatcher.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/joeydtaylor/ppdb-gateway/pkg/core"
	"github.com/joeydtaylor/ppdb-gateway/pkg/manifest"
	"github.com/joeydtaylor/ppdb-gateway/pkg/render"
	"github.com/joeydtaylor/ppdb-gateway/pkg/storage"
	"github.com/joeydtaylor/ppdb-gateway/pkg/store"
	"go.uber.org/zap"
)

const (
	tablePendaftar  = "pendaftar"
	tablePembayaran = "pembayaran"

	defaultMaxUpload = 5 << 20
)

// Deps are the collaborators shared by every action.
type Deps struct {
	Store  store.Store
	Bucket storage.Bucket
	Log    *zap.Logger
	Export manifest.Export
	// ProxyTables allowlists the tables supa_proxy may touch.
	ProxyTables []string
	// MaxUploadBytes caps decoded upload_file payloads.
	MaxUploadBytes int
	Now            func() time.Time
}

type service struct {
	Deps
	xlsx render.Renderer
	csv  render.Renderer
}

// Register adds every action to reg.
func Register(reg *core.Registry, d Deps) error {
	if reg == nil || d.Store == nil || d.Bucket == nil {
		return errors.New("handlers: registry, store and bucket are required")
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = defaultMaxUpload
	}
	if d.Export.SheetName == "" {
		d.Export.SheetName = "Pendaftar"
	}
	if d.Export.FilePrefix == "" {
		d.Export.FilePrefix = "pendaftar"
	}
	s := &service{Deps: d, xlsx: render.XLSX{}, csv: render.CSV{}}

	get := []string{http.MethodGet}
	post := []string{http.MethodPost}

	table := []struct {
		action  string
		methods []string
		h       core.Handler
	}{
		{"pendaftar_create", post, core.HandlerFunc(s.pendaftarCreate)},
		{"pendaftar_list", get, core.HandlerFunc(s.pendaftarList)},
		{"pendaftar_cek_status", get, core.HandlerFunc(s.pendaftarCekStatus)},
		{"pendaftar_status", post, core.HandlerFunc(s.pendaftarStatus)},
		{"pendaftar_update_files", post, core.HandlerFunc(s.pendaftarUpdateFiles)},
		{"pendaftar_files_list", get, core.HandlerFunc(s.pendaftarFilesList)},
		{"pendaftar_download_zip", get, core.HandlerFunc(s.pendaftarDownloadZip)},
		{"export_pendaftar_csv", get, s.exporter(s.csv)},
		{"export_pendaftar_xlsx", get, s.exporter(s.xlsx)},
		{"upload_file", post, core.HandlerFunc(s.uploadFile)},
		{"pembayaran_list", get, core.HandlerFunc(s.pembayaranList)},
		{"pembayaran_submit", post, core.HandlerFunc(s.pembayaranSubmit)},
		{"pembayaran_verify", post, core.HandlerFunc(s.pembayaranVerify)},
		{"supa_proxy", []string{http.MethodGet, http.MethodPost}, core.Methods{
			http.MethodGet:  core.HandlerFunc(s.proxyGet),
			http.MethodPost: core.HandlerFunc(s.proxyPost),
		}},
	}
	for _, e := range table {
		if err := reg.Register(e.action, e.methods, e.h); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) now() time.Time { return s.Now().UTC() }

// storeFailure maps store errors onto client-facing statuses.
func storeFailure(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return core.Failf(http.StatusNotFound, "%s", notFound)
	case errors.Is(err, store.ErrConflict):
		return core.Fail(http.StatusBadRequest, err)
	case errors.Is(err, store.ErrInvalid):
		return core.Fail(http.StatusBadRequest, err)
	default:
		return core.Fail(http.StatusInternalServerError, err)
	}
}
