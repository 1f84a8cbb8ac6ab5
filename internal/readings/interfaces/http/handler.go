package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	readingsapp "bptracker/internal/readings/application"
	readings "bptracker/internal/readings/domain"
	reporting "bptracker/internal/reporting/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// measuredAtLayouts are accepted for the datetime-local form field.
var measuredAtLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ChartSource renders the inline chart shown on the list page from the same
// snapshot the table is drawn from.
type ChartSource interface {
	InlineChartFor(snap readings.Snapshot) (reporting.Chart, error)
}

// Handler serves the reading pages.
type Handler struct {
	service *readingsapp.Service
	charts  ChartSource
	logger  *log.Logger
	pages   map[string]*template.Template
}

// NewHandler parses the page templates and constructs a handler.
func NewHandler(service *readingsapp.Service, charts ChartSource, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("readings handler: nil service")
	}
	if charts == nil {
		return nil, errors.New("readings handler: nil chart source")
	}
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	pages := make(map[string]*template.Template)
	for _, name := range []string{"list", "add", "delete"} {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}
	return &Handler{service: service, charts: charts, logger: logger, pages: pages}, nil
}

// Register mounts the reading routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/add/", h.handleAddForm)
	r.Post("/add/", h.handleAdd)
	r.Get("/delete/{id}/", h.handleDeleteConfirm)
	r.Post("/delete/{id}/", h.handleDelete)
}

type listPage struct {
	Readings    []readings.Reading
	ChartURL    template.URL
	ChartWidth  int
	ChartHeight int
}

type addPage struct {
	Systolic   string
	Diastolic  string
	MeasuredAt string
	Errors     []string
}

type deletePage struct {
	Reading readings.Reading
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.logger.Printf("list readings error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	img, err := h.charts.InlineChartFor(snap)
	if err != nil {
		h.logger.Printf("inline chart error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.render(w, "list", http.StatusOK, listPage{
		Readings:    snap.Readings(),
		ChartURL:    template.URL("data:image/png;base64," + img.Base64()),
		ChartWidth:  img.WidthPx,
		ChartHeight: img.HeightPx,
	})
}

func (h *Handler) handleAddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "add", http.StatusOK, addPage{})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	page := addPage{
		Systolic:   strings.TrimSpace(r.PostFormValue("systolic")),
		Diastolic:  strings.TrimSpace(r.PostFormValue("diastolic")),
		MeasuredAt: strings.TrimSpace(r.PostFormValue("measured_at")),
	}

	var in readingsapp.AddInput
	var err error
	if in.Systolic, err = strconv.Atoi(page.Systolic); err != nil {
		page.Errors = append(page.Errors, "Systolic must be a whole number.")
	}
	if in.Diastolic, err = strconv.Atoi(page.Diastolic); err != nil {
		page.Errors = append(page.Errors, "Diastolic must be a whole number.")
	}
	if in.MeasuredAt, err = parseMeasuredAt(page.MeasuredAt); err != nil {
		page.Errors = append(page.Errors, "Enter a valid date/time.")
	}
	if len(page.Errors) > 0 {
		h.render(w, "add", http.StatusBadRequest, page)
		return
	}

	if _, err := h.service.Add(r.Context(), in); err != nil {
		if msgs := validationMessages(err); len(msgs) > 0 {
			page.Errors = msgs
			h.render(w, "add", http.StatusBadRequest, page)
			return
		}
		h.logger.Printf("add reading error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := readingID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	reading, err := h.service.Get(r.Context(), id)
	if errors.Is(err, readings.ErrReadingNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Printf("get reading error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.render(w, "delete", http.StatusOK, deletePage{Reading: reading})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := readingID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	err := h.service.Delete(r.Context(), id)
	if errors.Is(err, readings.ErrReadingNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Printf("delete reading error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (h *Handler) render(w http.ResponseWriter, name string, status int, data any) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Printf("render %s error: %v", name, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func readingID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseMeasuredAt(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range measuredAtLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func validationMessages(err error) []string {
	var msgs []string
	if errors.Is(err, readings.ErrInvalidSystolic) {
		msgs = append(msgs, "Systolic must be between 1 and 400.")
	}
	if errors.Is(err, readings.ErrInvalidDiastolic) {
		msgs = append(msgs, "Diastolic must be between 1 and 400.")
	}
	if errors.Is(err, readings.ErrMissingMeasuredAt) {
		msgs = append(msgs, "Measured at is required.")
	}
	return msgs
}
