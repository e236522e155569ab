package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/okvist/punchcard/internal/artifact"
	"github.com/okvist/punchcard/internal/handler"
	"github.com/okvist/punchcard/internal/issuer"
	"github.com/okvist/punchcard/internal/ledger"
	"github.com/okvist/punchcard/internal/middleware"
	"github.com/okvist/punchcard/internal/resolver"
	"github.com/okvist/punchcard/internal/statement"
	"github.com/okvist/punchcard/internal/store"
	"github.com/okvist/punchcard/internal/token"
	ws "github.com/okvist/punchcard/internal/websocket"
)

// Config carries everything the server wiring needs beyond the database.
type Config struct {
	TokenSecret string
	JWTSecret   string
	Timezone    *time.Location
	CodeTTL     time.Duration
	LockWait    time.Duration
	Artifact    artifact.Config
	// Now supplies scan and issue timestamps. Defaults to UTC wall clock.
	Now func() time.Time
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	qrH         *handler.QrHandler
	scanH       *handler.ScanHandler
	attendanceH *handler.AttendanceHandler
	statementH  *handler.StatementHandler
	rateLimiter *middleware.RateLimiter
	jwtSecret   []byte
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	codec, err := token.NewCodec(cfg.TokenSecret)
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	qrStore := store.NewQrStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	statementStore := store.NewStatementStore(db)

	artifacts := artifact.New(cfg.Artifact, logger.With("component", "artifact"))

	issuerSvc := issuer.New(codec, qrStore, logger.With("component", "issuer"))
	resolverSvc := resolver.New(db, codec, qrStore, attendanceStore, resolver.Config{
		Timezone: cfg.Timezone,
		CodeTTL:  cfg.CodeTTL,
		LockWait: cfg.LockWait,
	}, logger.With("component", "resolver"))
	ledgerSvc := ledger.New(attendanceStore, logger.With("component", "ledger"))
	statementSvc := statement.New(ledgerSvc, statementStore, artifacts, cfg.Timezone, logger.With("component", "statement"))

	return &Server{
		db:          db,
		hub:         hub,
		qrH:         handler.NewQrHandler(issuerSvc, cfg.Now, logger.With("component", "qr")),
		scanH:       handler.NewScanHandler(resolverSvc, hub, cfg.Now, logger.With("component", "scan")),
		attendanceH: handler.NewAttendanceHandler(ledgerSvc),
		statementH:  handler.NewStatementHandler(statementSvc),
		rateLimiter: middleware.NewRateLimiter(),
		jwtSecret:   []byte(cfg.JWTSecret),
		logger:      logger,
	}, nil
}

// Hub returns the dashboard hub, exposed for shutdown accounting.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else carries a bearer token from the identity service.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.jwtSecret)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Employer station surface
	mux.Handle("POST /api/qr", middleware.RequireEmployer(http.HandlerFunc(s.qrH.Issue)))
	mux.Handle("PUT /api/attendance/{employee_id}/{day}/status", middleware.RequireEmployer(http.HandlerFunc(s.attendanceH.SetDayStatus)))
	mux.Handle("GET /ws", ws.HandleDashboard(s.hub, s.logger.With("component", "websocket")))

	// Employee scan surface, rate-limited per employee
	scanLimit := middleware.ScanRateLimit(s.rateLimiter, 30, time.Minute)
	mux.Handle("POST /api/scan", scanLimit(http.HandlerFunc(s.scanH.Resolve)))

	// Shared read surface
	mux.HandleFunc("GET /api/attendance", s.attendanceH.Query)
	mux.HandleFunc("POST /api/statements", s.statementH.Generate)
	mux.HandleFunc("GET /api/statements", s.statementH.List)
	mux.HandleFunc("GET /api/statements/{id}", s.statementH.Get)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "degraded"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
