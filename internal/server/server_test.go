package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"salesreport/internal/config"
	"salesreport/internal/parser"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()
	s, err := NewServer(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func upload(t *testing.T, h http.Handler, filename string, content []byte, fields map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		fw.Write(content)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, env
}

func sampleWorkbook(t *testing.T) []byte {
	t.Helper()

	f, err := parser.BuildWorkbook(parser.SampleData())
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestCreateReportAndDownload(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w, env := upload(t, h, "sales.xlsx", sampleWorkbook(t), nil)
	if env.Code != 0 {
		t.Fatalf("code=%d message=%s", env.Code, env.Message)
	}
	if skipped := w.Header().Get("X-Report-Skipped"); skipped != "" {
		t.Fatalf("skipped=%q", skipped)
	}

	var data struct {
		ReportID    string `json:"reportId"`
		DownloadURL string `json:"downloadUrl"`
		Charts      []struct {
			Slot   string `json:"slot"`
			Status string `json:"status"`
		} `json:"charts"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.ReportID == "" || len(data.Charts) != 4 {
		t.Fatalf("data=%+v", data)
	}

	req := httptest.NewRequest(http.MethodGet, data.DownloadURL, nil)
	dw := httptest.NewRecorder()
	h.ServeHTTP(dw, req)
	if dw.Code != http.StatusOK || !bytes.HasPrefix(dw.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("download status=%d type=%s", dw.Code, dw.Header().Get("Content-Type"))
	}

	mreq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	h.ServeHTTP(mw, mreq)
	if !strings.Contains(mw.Body.String(), `salesreport_runs_total{status="ok"} 1`) {
		t.Fatalf("metrics missing run counter:\n%s", mw.Body.String())
	}
}

func TestCreateReportRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	if _, env := upload(t, h, "", nil, nil); env.Code != 1001 {
		t.Fatalf("no file: code=%d", env.Code)
	}
	if _, env := upload(t, h, "sales.csv", []byte("a,b"), nil); env.Code != 1002 {
		t.Fatalf("csv: code=%d", env.Code)
	}
	if _, env := upload(t, h, "sales.xlsx", sampleWorkbook(t), map[string]string{"sink": "gif"}); env.Code != 2001 {
		t.Fatalf("bad sink: code=%d", env.Code)
	}
	if _, env := upload(t, h, "broken.xlsx", []byte("not a zip"), nil); env.Code != 3001 {
		t.Fatalf("broken workbook: code=%d", env.Code)
	}
}

func TestHealthzAndMissingDownload(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("healthz=%d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/nope/download", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing download=%d", w.Code)
	}
}
