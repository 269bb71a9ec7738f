package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/breakwatch/internal/backup"
	"github.com/rpggio/breakwatch/internal/domain/scan"
	"github.com/rpggio/breakwatch/internal/mcp"
)

// MCPHandler handles MCP method dispatch.
type MCPHandler interface {
	Handle(ctx context.Context, method string, params json.RawMessage) (any, error)
}

// Backups serves the export and import routes.
type Backups interface {
	ExportBackup(ctx context.Context) (*backup.BackupDocument, error)
	ExportReport(ctx context.Context) (*backup.ReportDocument, error)
	LongBreaksCSV(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) (*backup.RestoreResult, error)
}

// History serves the scan history download.
type History interface {
	HistoryCSV(ctx context.Context, w io.Writer, opts scan.ListOptions) error
}

// Config wires the HTTP surface. Metrics may be nil.
type Config struct {
	Handler MCPHandler
	Backups Backups
	History History
	Metrics http.Handler
	Logger  *slog.Logger
	Now     func() time.Time
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
	backups Backups
	history History
	logger  *slog.Logger
	now     func() time.Time
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	srv := &Server{
		handler: cfg.Handler,
		backups: cfg.Backups,
		history: cfg.History,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
	if srv.logger == nil {
		srv.logger = slog.New(slog.DiscardHandler)
	}
	if srv.now == nil {
		srv.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(srv.logger))

	r.Post("/rpc", srv.handleRPC)
	r.Get("/health", srv.handleHealth)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/export", func(r chi.Router) {
		r.Get("/backup", srv.handleExportBackup)
		r.Get("/report", srv.handleExportReport)
		r.Get("/long-breaks.csv", srv.handleLongBreaksCSV)
		r.Get("/history.csv", srv.handleHistoryCSV)
	})
	r.Post("/import/backup", srv.handleImportBackup)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			WriteError(w, nil, rpcErr.Code, rpcErr.Message, nil)
			return
		}
		WriteError(w, nil, ErrInternal, "internal error", nil)
		return
	}

	result, err := s.handler.Handle(r.Context(), req.Method, req.Params)
	if err != nil {
		code, message, data := rpcError(err)
		if code == ErrInternal {
			s.logger.Error("rpc call failed", "method", req.Method, "error", err)
		}
		WriteError(w, req.ID, code, message, data)
		return
	}

	WriteResult(w, req.ID, result)
}

// rpcError maps a dispatch error to a JSON-RPC error. Coded domain errors
// travel in data so clients can branch on them.
func rpcError(err error) (int, string, any) {
	var apiErr *mcp.APIError
	switch {
	case errors.Is(err, mcp.ErrUnknownMethod):
		return ErrMethodNotFound, err.Error(), nil
	case errors.As(err, &apiErr) && apiErr.Code == "INVALID_PARAMS":
		return ErrInvalidParams, apiErr.Message, apiErr
	case errors.As(err, &apiErr):
		return ErrApplication, apiErr.Message, apiErr
	default:
		return ErrInternal, "internal error", nil
	}
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := s.backups.ExportBackup(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.attachment(w, "application/json", s.filename("breakwatch-backup", "json"))
	if err := backup.EncodeBackup(w, doc); err != nil {
		s.logger.Warn("writing backup download failed", "error", err)
	}
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.backups.ExportReport(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.attachment(w, "application/json", s.filename("breakwatch-report", "json"))
	if err := backup.EncodeReport(w, doc); err != nil {
		s.logger.Warn("writing report download failed", "error", err)
	}
}

func (s *Server) handleLongBreaksCSV(w http.ResponseWriter, r *http.Request) {
	s.sendCSV(w, r, s.filename("long-breaks", "csv"), func(buf io.Writer) error {
		return s.backups.LongBreaksCSV(r.Context(), buf)
	})
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	opts := scan.ListOptions{
		BadgeCode: r.URL.Query().Get("badge"),
		Day:       r.URL.Query().Get("day"),
	}
	if opts.Day != "" {
		if _, err := time.Parse("2006-01-02", opts.Day); err != nil {
			writeProblem(w, http.StatusBadRequest, &mcp.APIError{Code: "VALIDATION_FAILED", Message: "day must be YYYY-MM-DD"})
			return
		}
	}
	s.sendCSV(w, r, s.filename("scan-history", "csv"), func(buf io.Writer) error {
		return s.history.HistoryCSV(r.Context(), buf, opts)
	})
}

// sendCSV renders into memory first so a failure becomes an error response
// instead of a truncated 200 download.
func (s *Server) sendCSV(w http.ResponseWriter, r *http.Request, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.fail(w, r, err)
		return
	}
	s.attachment(w, "text/csv; charset=utf-8", filename)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("writing csv download failed", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) handleImportBackup(w http.ResponseWriter, r *http.Request) {
	result, err := s.backups.Restore(r.Context(), r.Body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apiErr := mcp.MapError(err); apiErr != nil {
		writeProblem(w, http.StatusBadRequest, apiErr)
		return
	}
	s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	writeProblem(w, http.StatusInternalServerError, &mcp.APIError{Code: "INTERNAL", Message: "internal error"})
}

func (s *Server) attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (s *Server) filename(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, s.now().Format("2006-01-02"), ext)
}

func writeProblem(w http.ResponseWriter, status int, apiErr *mcp.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiErr)
}
