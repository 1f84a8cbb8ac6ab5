package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bptracker/internal/audit"
	"bptracker/internal/observability/metrics"
	readingsapp "bptracker/internal/readings/application"
	readings "bptracker/internal/readings/domain"
	"bptracker/internal/readings/infrastructure/memory"
	"bptracker/internal/readings/infrastructure/sqldb"
	readingshttp "bptracker/internal/readings/interfaces/http"
	reportingapp "bptracker/internal/reporting/application"
	"bptracker/internal/reporting/delivery"
	reportinghttp "bptracker/internal/reporting/interfaces/http"
)

const driverMemory = "memory"

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("dotenv load error: %v", err)
	}
	cfg := loadConfig()
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("store open error: %v", err)
	}
	if store.db != nil {
		defer store.db.Close()
	}
	metrics.Init(store.db, logger)

	readingService, err := readingsapp.NewService(store.readings)
	if err != nil {
		logger.Fatalf("readings service error: %v", err)
	}

	reportCfg, err := reportingapp.LoadConfig()
	if err != nil {
		logger.Fatalf("report config error: %v", err)
	}
	reportOpts := []reportingapp.Option{
		reportingapp.WithAuditLogger(store.audit),
		reportingapp.WithLogger(logger),
	}
	mailer, err := buildMailer(ctx, cfg, reportCfg)
	if err != nil {
		logger.Fatalf("mailer error: %v", err)
	}
	if mailer != nil {
		reportOpts = append(reportOpts, reportingapp.WithMailer(mailer))
	} else {
		logger.Printf("mail transport not configured; /send_pdf_email/ disabled")
	}
	reportService, err := reportingapp.NewService(readingService, reportCfg, reportOpts...)
	if err != nil {
		logger.Fatalf("reporting service error: %v", err)
	}

	readingHandler, err := readingshttp.NewHandler(readingService, reportService, logger)
	if err != nil {
		logger.Fatalf("readings handler error: %v", err)
	}
	reportHandler, err := reportinghttp.NewHandler(reportService, logger)
	if err != nil {
		logger.Fatalf("reporting handler error: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(logger, readingHandler, reportHandler),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	logger.Printf("http listening on %s (store=%s)", cfg.HTTPAddr, cfg.DatabaseDriver)
	logger.Fatal(server.ListenAndServe())
}

type routeRegistrar interface {
	Register(r chi.Router)
}

func newRouter(logger *log.Logger, handlers ...routeRegistrar) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(func(next http.Handler) http.Handler { return loggingMiddleware(next, logger) })
	router.Use(middleware.Recoverer)

	for _, h := range handlers {
		h.Register(router)
	}
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return router
}

type config struct {
	DatabaseDriver    string
	DatabaseURL       string
	HTTPAddr          string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	MailTransport     string
	SMTPAddr          string
	SMTPUsername      string
	SMTPPassword      string
	AWSRegion         string
	DBMaxOpenConns    int
}

func loadConfig() config {
	cfg := config{
		DatabaseDriver:    getenvDefault("DATABASE_DRIVER", sqldb.DriverSQLite),
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8000"),
		ReadHeaderTimeout: getenvDuration("HTTP_READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getenvDuration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
		MailTransport:     getenvDefault("MAIL_TRANSPORT", ""),
		SMTPAddr:          getenvDefault("SMTP_ADDR", ""),
		SMTPUsername:      getenvDefault("SMTP_USERNAME", ""),
		SMTPPassword:      getenvDefault("SMTP_PASSWORD", ""),
		AWSRegion:         getenvDefault("AWS_REGION", ""),
		DBMaxOpenConns:    getenvIntDefault("DB_MAX_OPEN_CONNS", 10),
	}
	switch cfg.DatabaseDriver {
	case sqldb.DriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL or PG_DSN is required for the pgx driver")
		}
	case sqldb.DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "bptracker.db"
		}
	case driverMemory:
	default:
		log.Fatalf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	return cfg
}

type stores struct {
	db       *sql.DB
	readings readings.Repository
	audit    audit.Logger
}

func openStore(ctx context.Context, cfg config) (stores, error) {
	if cfg.DatabaseDriver == driverMemory {
		return stores{readings: memory.NewReadingRepository(), audit: audit.NewMemoryLog()}, nil
	}

	db, err := sql.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	if cfg.DatabaseDriver == sqldb.DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("db ping: %w", err)
	}

	readingRepo, err := sqldb.NewReadingRepository(db, cfg.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return stores{}, err
	}
	if err := readingRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	auditRepo, err := audit.NewRepository(db, cfg.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return stores{}, err
	}
	if err := auditRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{db: db, readings: readingRepo, audit: auditRepo}, nil
}

func buildMailer(ctx context.Context, cfg config, reportCfg reportingapp.Config) (*delivery.Mailer, error) {
	var transport delivery.Transport
	switch cfg.MailTransport {
	case "":
		return nil, nil
	case "smtp":
		smtpTransport, err := delivery.NewSMTPTransport(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword)
		if err != nil {
			return nil, err
		}
		transport = smtpTransport
	case "ses":
		sesTransport, err := delivery.NewSESTransport(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		transport = sesTransport
	default:
		return nil, fmt.Errorf("unsupported MAIL_TRANSPORT %q", cfg.MailTransport)
	}
	return delivery.NewMailer(delivery.MailConfig{
		FromName:    reportCfg.Email.FromName,
		FromAddress: reportCfg.Email.From,
		To:          reportCfg.Email.To,
		Subject:     reportCfg.Email.Subject,
		Body:        reportCfg.Email.Body,
	}, transport)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s %s", r.Method, r.URL.Path, resp.status, time.Since(start), middleware.GetReqID(r.Context()))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
