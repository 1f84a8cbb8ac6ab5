package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"bptracker/internal/audit"
	"bptracker/internal/observability/metrics"
	readings "bptracker/internal/readings/domain"
	"bptracker/internal/reporting/chart"
	"bptracker/internal/reporting/document"
	reporting "bptracker/internal/reporting/domain"
	"bptracker/internal/reporting/table"
)

// ErrEmailDisabled is returned by EmailPDF when no mailer is configured.
var ErrEmailDisabled = errors.New("reporting: e-mail delivery not configured")

// Delivery modes recorded in metrics and the audit log.
const (
	ModeDownload = "download"
	ModeEmail    = "email"
)

const artifactInlineChart = "inline_chart"

// SnapshotSource provides the readings for one report.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (readings.Snapshot, error)
}

// Mailer sends a rendered document.
type Mailer interface {
	Send(ctx context.Context, doc reporting.Document) error
	Recipients() []string
}

// Service runs the report pipeline: snapshot, chart and table, document, sink.
type Service struct {
	source   SnapshotSource
	renderer *chart.Renderer
	cfg      Config
	mailer   Mailer
	audit    audit.Logger
	logger   *log.Logger
}

// Option customizes the service.
type Option func(*Service)

// WithRenderer overrides the chart renderer.
func WithRenderer(renderer *chart.Renderer) Option {
	return func(s *Service) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

// WithMailer enables EmailPDF.
func WithMailer(mailer Mailer) Option {
	return func(s *Service) {
		s.mailer = mailer
	}
}

// WithAuditLogger records deliveries.
func WithAuditLogger(logger audit.Logger) Option {
	return func(s *Service) {
		s.audit = logger
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a report service.
func NewService(source SnapshotSource, cfg Config, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("reporting: nil snapshot source")
	}
	s := &Service{
		source:   source,
		renderer: chart.NewRenderer(),
		cfg:      cfg,
		logger:   log.New(os.Stdout, "", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// InlineChartFor renders the low-resolution list page chart from a snapshot
// the caller already holds, so the page table and chart share one read.
func (s *Service) InlineChartFor(snap readings.Snapshot) (reporting.Chart, error) {
	start := time.Now()
	out, err := s.renderer.Render(snap, s.cfg.InlineChart)
	metrics.ObserveRender(artifactInlineChart, resultOf(err), time.Since(start))
	return out, err
}

// PDF renders the chart-plus-table document.
func (s *Service) PDF(ctx context.Context) (reporting.Document, error) {
	start := time.Now()
	doc, err := s.buildPDF(ctx)
	metrics.ObserveRender(string(reporting.FormatPDF), resultOf(err), time.Since(start))
	return doc, err
}

// Spreadsheet renders the table as XLSX.
func (s *Service) Spreadsheet(ctx context.Context) (reporting.Document, error) {
	start := time.Now()
	doc, err := s.buildSpreadsheet(ctx)
	metrics.ObserveRender(string(reporting.FormatXLSX), resultOf(err), time.Since(start))
	return doc, err
}

// EmailPDF renders the PDF and e-mails it once. A transport failure is
// returned to the caller.
func (s *Service) EmailPDF(ctx context.Context) (reporting.Document, error) {
	if s.mailer == nil {
		return reporting.Document{}, ErrEmailDisabled
	}
	doc, err := s.PDF(ctx)
	if err != nil {
		return reporting.Document{}, err
	}
	start := time.Now()
	err = s.mailer.Send(ctx, doc)
	s.RecordDelivery(ctx, doc, ModeEmail, err, time.Since(start))
	if err != nil {
		return reporting.Document{}, err
	}
	return doc, nil
}

// RecordDelivery observes and audits one delivery attempt.
func (s *Service) RecordDelivery(ctx context.Context, doc reporting.Document, mode string, deliveryErr error, elapsed time.Duration) {
	result := resultOf(deliveryErr)
	metrics.ObserveDelivery(string(doc.Format), mode, result, elapsed)
	if deliveryErr != nil {
		s.logger.Printf("report %s %s error: %v", doc.Format, mode, deliveryErr)
	}
	if s.audit == nil {
		return
	}
	origin := audit.OriginFrom(ctx)
	entry := audit.Entry{
		Action:    audit.ActionDownload,
		Format:    string(doc.Format),
		Mode:      mode,
		Rows:      doc.Rows,
		Bytes:     doc.Size(),
		Result:    result,
		IP:        origin.IP,
		UserAgent: origin.UserAgent,
	}
	if mode == ModeEmail {
		entry.Action = audit.ActionEmail
		if s.mailer != nil {
			entry.Recipient = strings.Join(s.mailer.Recipients(), ",")
		}
	}
	if deliveryErr != nil {
		entry.Error = deliveryErr.Error()
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Printf("audit log error: %v", err)
	}
}

func (s *Service) buildPDF(ctx context.Context) (reporting.Document, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return reporting.Document{}, err
	}
	img, err := s.renderer.Render(snap, s.cfg.DocumentChart)
	if err != nil {
		return reporting.Document{}, err
	}
	opts := s.cfg.PDF
	opts.CreatedAt = snap.TakenAt()
	doc, err := document.ComposePDF(img, table.Format(snap), opts)
	if err != nil {
		return reporting.Document{}, fmt.Errorf("reporting: pdf: %w", err)
	}
	return doc, nil
}

func (s *Service) buildSpreadsheet(ctx context.Context) (reporting.Document, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return reporting.Document{}, err
	}
	doc, err := document.ComposeSpreadsheet(table.Format(snap))
	if err != nil {
		return reporting.Document{}, fmt.Errorf("reporting: xlsx: %w", err)
	}
	return doc, nil
}

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
