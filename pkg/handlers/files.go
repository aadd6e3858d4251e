package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joeydtaylor/ppdb-gateway/pkg/core"
	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"github.com/joeydtaylor/ppdb-gateway/pkg/storage"
	"go.uber.org/zap"
)

type uploadInput struct {
	NISN        string `json:"nisn" validate:"required,numeric"`
	Jenis       string `json:"jenis" validate:"required,oneof=akta ijazah foto bpjs"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"max=100"`
	Data        string `json:"data" validate:"required"`
}

// decodePayload accepts raw base64 or a data: URL.
func decodePayload(data string) ([]byte, string, error) {
	contentType := ""
	if strings.HasPrefix(data, "data:") {
		meta, rest, ok := strings.Cut(data, ",")
		if !ok {
			return nil, "", errors.New("malformed data URL")
		}
		contentType = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
		data = rest
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", err
	}
	return b, contentType, nil
}

// objectKey is <nisn>/<jenis>_<unix>_<rand><ext>. The random part keeps
// uploads of the same kind within one second from replacing each other.
func objectKey(nisn, jenis, filename string, at time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return nisn + "/" + jenis + "_" + strconv.FormatInt(at.Unix(), 10) + "_" + suffix + ext
}

func (s *service) uploadFile(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var in uploadInput
	if err := decodeValid(req, &in); err != nil {
		return envelope.Response{}, err
	}
	blob, ct, err := decodePayload(in.Data)
	if err != nil {
		return envelope.Response{}, core.BadRequest("data is not valid base64: " + err.Error())
	}
	if len(blob) == 0 {
		return envelope.Response{}, core.BadRequest("data is empty")
	}
	if len(blob) > s.MaxUploadBytes {
		return envelope.Response{}, core.Failf(http.StatusRequestEntityTooLarge,
			"file exceeds %d bytes", s.MaxUploadBytes)
	}
	if in.ContentType != "" {
		ct = in.ContentType
	}
	if ct == "" {
		ct = http.DetectContentType(blob)
	}

	key := objectKey(in.NISN, in.Jenis, in.Filename, s.now())
	if err := s.Bucket.Put(ctx, key, ct, blob); err != nil {
		return envelope.Response{}, core.Fail(http.StatusInternalServerError, err)
	}
	s.Log.Info("file uploaded",
		zap.String("key", key),
		zap.Int("size", len(blob)),
		zap.String("requestId", req.RequestID),
	)
	return envelope.Success(map[string]any{
		"path":         key,
		"url":          s.Bucket.URL(key),
		"size":         len(blob),
		"content_type": ct,
	}), nil
}

func (s *service) listApplicantFiles(ctx context.Context, req *core.Request) (string, []storage.Object, error) {
	nisn := req.Param("nisn")
	if nisn == "" {
		return "", nil, core.BadRequest("nisn is required")
	}
	if _, err := storage.CleanKey(nisn); err != nil || strings.Contains(nisn, "/") {
		return "", nil, core.BadRequest("nisn is invalid")
	}
	objs, err := s.Bucket.List(ctx, nisn+"/")
	if err != nil {
		return "", nil, core.Fail(http.StatusInternalServerError, err)
	}
	return nisn, objs, nil
}

func (s *service) pendaftarFilesList(ctx context.Context, req *core.Request) (envelope.Response, error) {
	_, objs, err := s.listApplicantFiles(ctx, req)
	if err != nil {
		return envelope.Response{}, err
	}
	data := make([]map[string]any, 0, len(objs))
	for _, o := range objs {
		data = append(data, map[string]any{
			"name":          path.Base(o.Key),
			"path":          o.Key,
			"size":          o.Size,
			"url":           o.URL,
			"last_modified": o.LastModified.UTC().Format(time.RFC3339),
		})
	}
	return envelope.Success(data, envelope.Count(len(data))), nil
}

func (s *service) pendaftarDownloadZip(ctx context.Context, req *core.Request) (envelope.Response, error) {
	nisn, objs, err := s.listApplicantFiles(ctx, req)
	if err != nil {
		return envelope.Response{}, err
	}
	if len(objs) == 0 {
		return envelope.Response{}, core.NotFoundf("Tidak ada berkas untuk NISN %s", nisn)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, o := range objs {
		blob, err := s.Bucket.Get(ctx, o.Key)
		if err != nil {
			return envelope.Response{}, core.Fail(http.StatusInternalServerError, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Base(o.Key),
			Method:   zip.Deflate,
			Modified: o.LastModified,
		})
		if err != nil {
			return envelope.Response{}, core.Fail(http.StatusInternalServerError, err)
		}
		if _, err := w.Write(blob); err != nil {
			return envelope.Response{}, core.Fail(http.StatusInternalServerError, err)
		}
	}
	if err := zw.Close(); err != nil {
		return envelope.Response{}, core.Fail(http.StatusInternalServerError, err)
	}
	return envelope.File("berkas_"+nisn+".zip", "application/zip", buf.Bytes()), nil
}
