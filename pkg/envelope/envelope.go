// Package envelope is the uniform response contract: every reply the gateway
// sends, success or failure, goes through a Response built here.
package envelope

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/joeydtaylor/ppdb-gateway/pkg/codec"
)

const (
	HeaderAllowOrigin  = "Access-Control-Allow-Origin"
	HeaderAllowMethods = "Access-Control-Allow-Methods"
	HeaderAllowHeaders = "Access-Control-Allow-Headers"

	ContentTypeJSON = "application/json"
	AllowAnyOrigin  = "*"
)

// Field is an extra top-level key merged into a success body (e.g. "count").
type Field struct {
	Key   string
	Value any
}

// Count is the common list-size field.
func Count(n int) Field { return Field{Key: "count", Value: n} }

// Response is a fully formed reply. Body is pre-encoded; ContentType is empty
// only for preflight replies, which carry no body.
type Response struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

// Success builds a 200 {success:true, data, ...extra} body.
func Success(data any, extra ...Field) Response {
	return SuccessStatus(http.StatusOK, data, extra...)
}

// SuccessStatus is Success with an explicit 2xx status. Anything outside
// 2xx falls back to 200.
func SuccessStatus(status int, data any, extra ...Field) Response {
	if status < 200 || status > 299 {
		status = http.StatusOK
	}
	body := make(map[string]any, len(extra)+2)
	for _, f := range extra {
		if f.Key == "" || f.Key == "success" || f.Key == "data" {
			continue
		}
		body[f.Key] = f.Value
	}
	body["success"] = true
	body["data"] = data
	return jsonResponse(status, body)
}

// Failure builds a {success:false, error} body. Statuses outside 4xx/5xx are
// treated as 500.
func Failure(message string, status int) Response {
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	return jsonResponse(status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// Preflight is the fixed CORS preflight reply: 200, no body.
func Preflight(methods, headers []string) Response {
	h := http.Header{}
	if len(methods) > 0 {
		h.Set(HeaderAllowMethods, strings.Join(methods, ", "))
	}
	if len(headers) > 0 {
		h.Set(HeaderAllowHeaders, strings.Join(headers, ", "))
	}
	return Response{Status: http.StatusOK, Header: h}
}

// File is a binary attachment download.
func File(name, contentType string, blob []byte) Response {
	h := http.Header{}
	h.Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(name)+`"`)
	h.Set("Content-Length", strconv.Itoa(len(blob)))
	h.Set("Cache-Control", "no-cache")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Response{Status: http.StatusOK, ContentType: contentType, Header: h, Body: blob}
}

// IsSuccess reports whether the status is 2xx.
func (r Response) IsSuccess() bool { return r.Status >= 200 && r.Status <= 299 }

// Write sends the response. The allow-origin header is always set.
func (r Response) Write(w http.ResponseWriter) {
	h := w.Header()
	for k, vs := range r.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Set(HeaderAllowOrigin, AllowAnyOrigin)
	if r.ContentType != "" {
		h.Set("Content-Type", r.ContentType)
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) > 0 {
		_, _ = w.Write(r.Body)
	}
}

func jsonResponse(status int, body map[string]any) Response {
	raw, err := codec.JSON.Marshal(body)
	if err != nil {
		// data was not encodable; report that instead of a broken body
		raw, _ = codec.JSON.Marshal(map[string]any{
			"success": false,
			"error":   "response encode: " + err.Error(),
		})
		status = http.StatusInternalServerError
	}
	return Response{Status: status, ContentType: codec.JSON.ContentType(), Body: raw}
}

func sanitizeFilename(name string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "", "/", "_", `\`, "_").Replace(name)
	if name == "" {
		return "download"
	}
	return name
}
