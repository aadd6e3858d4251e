package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/joeydtaylor/ppdb-gateway/pkg/core"
	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"github.com/joeydtaylor/ppdb-gateway/pkg/store"
	"go.uber.org/zap"
)

const (
	StatusPending  = "pending"
	StatusRevisi   = "revisi"
	StatusDiterima = "diterima"
	StatusDitolak  = "ditolak"
)

var pendaftarColumns = []string{
	"id", "nomor_registrasi", "nisn", "namalengkap", "tanggallahir",
	"tempatlahir", "jeniskelamin", "namaayah", "namaibu", "telepon_orang_tua",
	"email", "rencanatingkat", "rencanaprogram", "alamat", "desa",
	"file_akta", "file_ijazah", "file_foto", "file_bpjs", "status",
	"catatan_admin", "verified_by", "created_at", "updated_at",
}

type pendaftarInput struct {
	NISN            string `json:"nisn" validate:"required,numeric,min=4,max=20"`
	NamaLengkap     string `json:"namalengkap" validate:"required,max=200"`
	TanggalLahir    string `json:"tanggallahir" validate:"omitempty,datetime=2006-01-02"`
	TempatLahir     string `json:"tempatlahir" validate:"max=100"`
	JenisKelamin    string `json:"jeniskelamin" validate:"omitempty,oneof=L P"`
	NamaAyah        string `json:"namaayah" validate:"max=200"`
	NamaIbu         string `json:"namaibu" validate:"max=200"`
	TeleponOrangTua string `json:"telepon_orang_tua" validate:"omitempty,max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	RencanaTingkat  string `json:"rencanatingkat" validate:"max=50"`
	RencanaProgram  string `json:"rencanaprogram" validate:"max=100"`
	Alamat          string `json:"alamat" validate:"max=500"`
	Desa            string `json:"desa" validate:"max=100"`
	FileAkta        string `json:"file_akta" validate:"omitempty,url"`
	FileIjazah      string `json:"file_ijazah" validate:"omitempty,url"`
	FileFoto        string `json:"file_foto" validate:"omitempty,url"`
	FileBPJS        string `json:"file_bpjs" validate:"omitempty,url"`
}

func (s *service) pendaftarCreate(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var in pendaftarInput
	if err := decodeValid(req, &in); err != nil {
		return envelope.Response{}, err
	}
	now := s.now()
	row := store.Row{
		"id":                uuid.NewString(),
		"nomor_registrasi":  newNumber("PPDB", now),
		"nisn":              in.NISN,
		"namalengkap":       in.NamaLengkap,
		"tanggallahir":      optional(in.TanggalLahir),
		"tempatlahir":       optional(in.TempatLahir),
		"jeniskelamin":      optional(in.JenisKelamin),
		"namaayah":          optional(in.NamaAyah),
		"namaibu":           optional(in.NamaIbu),
		"telepon_orang_tua": optional(in.TeleponOrangTua),
		"email":             optional(in.Email),
		"rencanatingkat":    optional(in.RencanaTingkat),
		"rencanaprogram":    optional(in.RencanaProgram),
		"alamat":            optional(in.Alamat),
		"desa":              optional(in.Desa),
		"file_akta":         optional(in.FileAkta),
		"file_ijazah":       optional(in.FileIjazah),
		"file_foto":         optional(in.FileFoto),
		"file_bpjs":         optional(in.FileBPJS),
		"status":            StatusPending,
		"created_at":        now,
		"updated_at":        now,
	}
	out, err := s.Store.Insert(ctx, tablePendaftar, row)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return envelope.Response{}, core.BadRequest("NISN " + in.NISN + " sudah terdaftar")
		}
		return envelope.Response{}, storeFailure(err, "")
	}
	s.Log.Info("pendaftar created",
		zap.String("nomor_registrasi", str(out, "nomor_registrasi")),
		zap.String("requestId", req.RequestID),
	)
	return envelope.Success(project(out, pendaftarColumns)), nil
}

func (s *service) pendaftarList(ctx context.Context, _ *core.Request) (envelope.Response, error) {
	rows, err := s.Store.Select(ctx, store.Query{
		Table:   tablePendaftar,
		OrderBy: []store.Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	data := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, project(r, pendaftarColumns))
	}
	return envelope.Success(data, envelope.Count(len(data))), nil
}

func (s *service) pendaftarCekStatus(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var where []store.Cond
	switch {
	case req.Param("nomor_registrasi") != "":
		where = append(where, store.Eq("nomor_registrasi", req.Param("nomor_registrasi")))
	case req.Param("nisn") != "":
		where = append(where, store.Eq("nisn", req.Param("nisn")))
	default:
		return envelope.Response{}, core.BadRequest("nomor_registrasi or nisn is required")
	}
	rows, err := s.Store.Select(ctx, store.Query{Table: tablePendaftar, Where: where, Limit: 1})
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	if len(rows) == 0 {
		return envelope.Response{}, core.NotFoundf("Data pendaftar tidak ditemukan")
	}
	return envelope.Success(project(rows[0], []string{
		"nomor_registrasi", "nisn", "namalengkap", "rencanaprogram",
		"status", "catatan_admin", "created_at", "updated_at",
	})), nil
}

type statusInput struct {
	ID           string `json:"id" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=pending revisi diterima ditolak"`
	CatatanAdmin string `json:"catatan_admin" validate:"max=1000"`
	VerifiedBy   string `json:"verified_by" validate:"max=100"`
}

func (s *service) pendaftarStatus(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var in statusInput
	if err := decodeValid(req, &in); err != nil {
		return envelope.Response{}, err
	}
	rows, err := s.Store.Update(ctx, tablePendaftar,
		[]store.Cond{store.Eq("id", in.ID)},
		store.Row{
			"status":        in.Status,
			"catatan_admin": optional(in.CatatanAdmin),
			"verified_by":   optional(in.VerifiedBy),
			"updated_at":    s.now(),
		})
	if err != nil {
		return envelope.Response{}, storeFailure(err, "Data pendaftar tidak ditemukan")
	}
	s.Log.Info("pendaftar status changed",
		zap.String("id", in.ID),
		zap.String("status", in.Status),
		zap.String("requestId", req.RequestID),
	)
	return envelope.Success(project(rows[0], pendaftarColumns)), nil
}

type filesInput struct {
	NISN       string `json:"nisn" validate:"required"`
	FileAkta   string `json:"file_akta" validate:"omitempty,url"`
	FileIjazah string `json:"file_ijazah" validate:"omitempty,url"`
	FileFoto   string `json:"file_foto" validate:"omitempty,url"`
	FileBPJS   string `json:"file_bpjs" validate:"omitempty,url"`
}

func (s *service) pendaftarUpdateFiles(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var in filesInput
	if err := decodeValid(req, &in); err != nil {
		return envelope.Response{}, err
	}
	set := store.Row{}
	for col, v := range map[string]string{
		"file_akta":   in.FileAkta,
		"file_ijazah": in.FileIjazah,
		"file_foto":   in.FileFoto,
		"file_bpjs":   in.FileBPJS,
	} {
		if v != "" {
			set[col] = v
		}
	}
	if len(set) == 0 {
		return envelope.Response{}, core.BadRequest("at least one file URL is required")
	}
	set["updated_at"] = s.now()

	rows, err := s.Store.Update(ctx, tablePendaftar, []store.Cond{store.Eq("nisn", in.NISN)}, set)
	if err != nil {
		return envelope.Response{}, storeFailure(err, "Data pendaftar tidak ditemukan")
	}
	return envelope.Success(project(rows[0], pendaftarColumns)), nil
}

// pendaftarExists is used by actions that reference an applicant by number.
func (s *service) pendaftarExists(ctx context.Context, nomor string) (bool, error) {
	rows, err := s.Store.Select(ctx, store.Query{
		Table:   tablePendaftar,
		Columns: []string{"id"},
		Where:   []store.Cond{store.Eq("nomor_registrasi", nomor)},
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

