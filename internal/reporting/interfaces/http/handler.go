package http

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"bptracker/internal/audit"
	reportingapp "bptracker/internal/reporting/application"
	"bptracker/internal/reporting/delivery"
	reporting "bptracker/internal/reporting/domain"
)

const emailSentMessage = "PDF generated and sent via email."

// Handler serves report exports.
type Handler struct {
	service *reportingapp.Service
	logger  *log.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *reportingapp.Service, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("reporting handler: nil service")
	}
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	return &Handler{service: service, logger: logger}, nil
}

// Register mounts the export routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/download/", h.handleSpreadsheet)
	r.Get("/download_pdf/", h.handlePDF)
	r.Get("/send_pdf_email/", h.handleEmailPDF)
}

func (h *Handler) handleSpreadsheet(w http.ResponseWriter, r *http.Request) {
	ctx := audit.WithOrigin(r.Context(), audit.OriginFromRequest(r))
	doc, err := h.service.Spreadsheet(ctx)
	if err != nil {
		h.logger.Printf("xlsx export error: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	h.download(w, r, doc)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	ctx := audit.WithOrigin(r.Context(), audit.OriginFromRequest(r))
	doc, err := h.service.PDF(ctx)
	if err != nil {
		h.logger.Printf("pdf export error: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	h.download(w, r, doc)
}

func (h *Handler) handleEmailPDF(w http.ResponseWriter, r *http.Request) {
	ctx := audit.WithOrigin(r.Context(), audit.OriginFromRequest(r))
	_, err := h.service.EmailPDF(ctx)
	switch {
	case errors.Is(err, reportingapp.ErrEmailDisabled):
		http.Error(w, "email delivery not configured", http.StatusServiceUnavailable)
		return
	case errors.Is(err, reporting.ErrDeliveryFailed):
		http.Error(w, "email delivery failed", http.StatusInternalServerError)
		return
	case err != nil:
		h.logger.Printf("pdf email error: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(emailSentMessage))
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request, doc reporting.Document) {
	ctx := audit.WithOrigin(r.Context(), audit.OriginFromRequest(r))
	start := time.Now()
	err := delivery.WriteDownload(w, doc)
	h.service.RecordDelivery(ctx, doc, reportingapp.ModeDownload, err, time.Since(start))
}
