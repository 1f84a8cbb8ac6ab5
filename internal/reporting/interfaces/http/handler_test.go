package http

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"bptracker/internal/audit"
	readings "bptracker/internal/readings/domain"
	reportingapp "bptracker/internal/reporting/application"
	reporting "bptracker/internal/reporting/domain"
)

type stubSource struct{ snap readings.Snapshot }

func (s stubSource) Snapshot(context.Context) (readings.Snapshot, error) { return s.snap, nil }

type stubMailer struct {
	err  error
	sent int
}

func (m *stubMailer) Send(context.Context, reporting.Document) error {
	m.sent++
	return m.err
}

func (m *stubMailer) Recipients() []string { return []string{"doctor@example.com"} }

func newRouter(t *testing.T, mailer reportingapp.Mailer, auditLog audit.Logger) http.Handler {
	t.Helper()
	snap := readings.NewSnapshot([]readings.Reading{
		{ID: 1, Systolic: 120, Diastolic: 80, MeasuredAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{ID: 2, Systolic: 130, Diastolic: 85, MeasuredAt: time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)},
	}, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	cfg := reportingapp.DefaultConfig()
	cfg.InlineChart.DPI = 30
	cfg.DocumentChart.DPI = 40
	logger := log.New(io.Discard, "", 0)
	opts := []reportingapp.Option{reportingapp.WithLogger(logger), reportingapp.WithAuditLogger(auditLog)}
	if mailer != nil {
		opts = append(opts, reportingapp.WithMailer(mailer))
	}
	svc, err := reportingapp.NewService(stubSource{snap: snap}, cfg, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h, err := NewHandler(svc, logger)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestDownloadSpreadsheet(t *testing.T) {
	auditLog := audit.NewMemoryLog()
	router := newRouter(t, nil, auditLog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != reporting.ContentTypeXLSX {
		t.Fatalf("content type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=blood_pressure_data.xlsx" {
		t.Fatalf("content disposition %q", got)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	entries := auditLog.Entries()
	if len(entries) != 1 || entries[0].Action != audit.ActionDownload || entries[0].Format != "xlsx" {
		t.Fatalf("unexpected audit %+v", entries)
	}
}

func TestDownloadPDF(t *testing.T) {
	router := newRouter(t, nil, audit.NewMemoryLog())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download_pdf/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=blood_pressure_data.pdf" {
		t.Fatalf("content disposition %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("body is not a pdf")
	}
}

func TestSendPDFEmail(t *testing.T) {
	mailer := &stubMailer{}
	router := newRouter(t, mailer, audit.NewMemoryLog())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send_pdf_email/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Body.String() != emailSentMessage {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if mailer.sent != 1 {
		t.Fatalf("expected one send, got %d", mailer.sent)
	}
}

func TestSendPDFEmail_TransportFailure(t *testing.T) {
	mailer := &stubMailer{err: reporting.ErrDeliveryFailed}
	router := newRouter(t, mailer, audit.NewMemoryLog())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send_pdf_email/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSendPDFEmail_NotConfigured(t *testing.T) {
	router := newRouter(t, nil, audit.NewMemoryLog())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send_pdf_email/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
