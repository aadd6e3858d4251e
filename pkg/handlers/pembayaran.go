package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/joeydtaylor/ppdb-gateway/pkg/core"
	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"github.com/joeydtaylor/ppdb-gateway/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	PaymentPending  = "PENDING"
	PaymentVerified = "VERIFIED"
	PaymentRejected = "REJECTED"
)

func pembayaranView(row store.Row) (map[string]any, error) {
	jumlah, err := decimalOf(row["jumlah"])
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":                 row["id"],
		"nomor_pembayaran":   row["nomor_pembayaran"],
		"nomor_registrasi":   row["nomor_registrasi"],
		"nama_lengkap":       row["nama_lengkap"],
		"jumlah":             jumlah.InexactFloat64(),
		"status":             row["status_pembayaran"],
		"tanggal_upload":     row["tanggal_upload"],
		"tanggal_verifikasi": row["tanggal_verifikasi"],
		"verified_by":        row["verified_by"],
		"catatan_admin":      row["catatan_admin"],
		"bukti_pembayaran":   row["bukti_pembayaran"],
		"metode_pembayaran":  row["metode_pembayaran"],
		"created_at":         row["created_at"],
		"updated_at":         row["updated_at"],
	}, nil
}

func (s *service) pembayaranList(ctx context.Context, _ *core.Request) (envelope.Response, error) {
	rows, err := s.Store.Select(ctx, store.Query{
		Table:   tablePembayaran,
		OrderBy: []store.Order{{Column: "created_at", Desc: true}},
	})
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	data := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		v, err := pembayaranView(r)
		if err != nil {
			return envelope.Response{}, storeFailure(err, "")
		}
		data = append(data, v)
	}
	return envelope.Success(data, envelope.Count(len(data))), nil
}

type submitInput struct {
	NomorRegistrasi  string          `json:"nomor_registrasi" validate:"required"`
	NamaLengkap      string          `json:"nama_lengkap" validate:"required,max=200"`
	Jumlah           decimal.Decimal `json:"jumlah"`
	MetodePembayaran string          `json:"metode_pembayaran" validate:"required,max=50"`
	BuktiPembayaran  string          `json:"bukti_pembayaran" validate:"omitempty,url"`
}

func (s *service) pembayaranSubmit(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var in submitInput
	if err := decodeValid(req, &in); err != nil {
		return envelope.Response{}, err
	}
	if !in.Jumlah.IsPositive() {
		return envelope.Response{}, core.BadRequest("jumlah must be greater than 0")
	}
	ok, err := s.pendaftarExists(ctx, in.NomorRegistrasi)
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	if !ok {
		return envelope.Response{}, core.NotFoundf("Nomor registrasi %s tidak ditemukan", in.NomorRegistrasi)
	}

	now := s.now()
	out, err := s.Store.Insert(ctx, tablePembayaran, store.Row{
		"id":                uuid.NewString(),
		"nomor_pembayaran":  newNumber("PAY", now),
		"nomor_registrasi":  in.NomorRegistrasi,
		"nama_lengkap":      in.NamaLengkap,
		"jumlah":            in.Jumlah,
		"metode_pembayaran": in.MetodePembayaran,
		"bukti_pembayaran":  optional(in.BuktiPembayaran),
		"status_pembayaran": PaymentPending,
		"tanggal_upload":    now,
		"created_at":        now,
		"updated_at":        now,
	})
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	view, err := pembayaranView(out)
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	s.Log.Info("pembayaran submitted",
		zap.String("nomor_pembayaran", str(out, "nomor_pembayaran")),
		zap.String("jumlah", in.Jumlah.String()),
		zap.String("requestId", req.RequestID),
	)
	return envelope.Success(view), nil
}

type verifyInput struct {
	NomorPembayaran string `json:"nomor_pembayaran" validate:"required"`
	Status          string `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
	VerifiedBy      string `json:"verified_by" validate:"required,max=100"`
	CatatanAdmin    string `json:"catatan_admin" validate:"max=1000"`
}

func (s *service) pembayaranVerify(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var in verifyInput
	if err := decodeValid(req, &in); err != nil {
		return envelope.Response{}, err
	}
	now := s.now()
	rows, err := s.Store.Update(ctx, tablePembayaran,
		[]store.Cond{store.Eq("nomor_pembayaran", in.NomorPembayaran)},
		store.Row{
			"status_pembayaran":  in.Status,
			"verified_by":        in.VerifiedBy,
			"catatan_admin":      optional(in.CatatanAdmin),
			"tanggal_verifikasi": now,
			"updated_at":         now,
		})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return envelope.Response{}, core.NotFoundf("Pembayaran %s tidak ditemukan", in.NomorPembayaran)
		}
		return envelope.Response{}, storeFailure(err, "")
	}
	view, err := pembayaranView(rows[0])
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	s.Log.Info("pembayaran verified",
		zap.String("nomor_pembayaran", in.NomorPembayaran),
		zap.String("status", in.Status),
		zap.String("requestId", req.RequestID),
	)
	return envelope.Success(view), nil
}
