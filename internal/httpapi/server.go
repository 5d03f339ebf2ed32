package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/types"
)

type Dependencies struct {
	Logger *slog.Logger
	Addr   string

	Assemblies *service.AssemblyService
	Records    *service.RecordService
	Proxies    *service.ProxyService
	Attendance *service.AttendanceService
	Stats      *service.StatsService

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	mux        *http.ServeMux

	assemblies *service.AssemblyService
	records    *service.RecordService
	proxies    *service.ProxyService
	attendance *service.AttendanceService
	stats      *service.StatsService
}

func NewServer(d Dependencies) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	s := &Server{
		logger:     d.Logger.With("component", "http"),
		mux:        mux,
		assemblies: d.Assemblies,
		records:    d.Records,
		proxies:    d.Proxies,
		attendance: d.Attendance,
		stats:      d.Stats,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	mux.HandleFunc("POST /v1/assemblies", s.handleCreateAssembly)
	mux.HandleFunc("GET /v1/assemblies", s.handleListAssemblies)
	mux.HandleFunc("GET /v1/assemblies/{id}", s.handleGetAssembly)
	mux.HandleFunc("PATCH /v1/assemblies/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("DELETE /v1/assemblies/{id}", s.handleDeleteAssembly)

	mux.HandleFunc("GET /v1/assemblies/{id}/records", s.handleListRecords)
	mux.HandleFunc("GET /v1/assemblies/{id}/records/search", s.handleSearchRecords)
	mux.HandleFunc("GET /v1/assemblies/{id}/control-numbers/check", s.handleCheckControlNumber)

	mux.HandleFunc("GET /v1/assemblies/{id}/proxies/suggest", s.handleSuggestProxies)
	mux.HandleFunc("GET /v1/assemblies/{id}/proxies/holder", s.handleFindHolder)
	mux.HandleFunc("GET /v1/assemblies/{id}/proxies/owner", s.handleFindOwner)
	mux.HandleFunc("GET /v1/assemblies/{id}/proxies/coefficient", s.handleOwnerCoefficient)
	mux.HandleFunc("POST /v1/assemblies/{id}/proxies/transfer", s.handleTransfer)
	mux.HandleFunc("POST /v1/assemblies/{id}/proxies/return", s.handleReturn)
	mux.HandleFunc("POST /v1/assemblies/{id}/proxies/drop", s.handleDrop)
	mux.HandleFunc("GET /v1/assemblies/{id}/proxies/movements", s.handleMovements)
	mux.HandleFunc("PATCH /v1/assemblies/{id}/records/{record_id}/proxies/{n}", s.handleSetSlotControl)

	mux.HandleFunc("GET /v1/assemblies/{id}/stats/hourly", s.handleHourlyStats)
	mux.HandleFunc("GET /v1/assemblies/{id}/stats/quorum", s.handleQuorumStats)

	mux.HandleFunc("GET /v1/records/{id}", s.handleGetRecord)
	mux.HandleFunc("PATCH /v1/records/{id}", s.handleUpdateRecord)
	mux.HandleFunc("POST /v1/records/{id}/attendance", s.handleRegisterAttendance)

	handler := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "asamblea.http")

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps err to its HTTP status. Errors without a domain code are
// logged and reported as internal errors.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	writeError(w, r, code.HTTPStatus(), strings.ToLower(string(code)), apperrors.MessageOf(err))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respond(w, r, status, types.ErrorResponse{Error: code, Message: message})
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, "invalid_argument", message)
}

// decodeOrFail decodes the body into v, answering 400 on failure.
func decodeOrFail(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeBody(r, v); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_json", "invalid request body")
		return false
	}
	return true
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
