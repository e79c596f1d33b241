package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sharekeep/internal/apperr"
	"sharekeep/internal/config"
	"sharekeep/internal/models"
	"sharekeep/internal/service"

	"github.com/rs/zerolog"
)

const headerSharerID = "X-Sharer-User-Id"

// Services bundles the per-aggregate services the REST surface dispatches to.
type Services struct {
	Users    *service.UserService
	Items    *service.ItemService
	Requests *service.RequestService
	Bookings *service.BookingService
}

// HTTPServer exposes the HTTP/JSON surface of the platform.
type HTTPServer struct {
	cfg      *config.Config
	services Services
	server   *http.Server
	limiter  *RateLimiter
	log      zerolog.Logger
}

func NewHTTPServer(cfg *config.Config, services Services, limiter *RateLimiter, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		services: services,
		limiter:  limiter,
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealthz)

	mux.HandleFunc("/users", srv.handleUsers)
	mux.HandleFunc("/users/", srv.handleUserByID)

	mux.HandleFunc("/items", srv.handleItems)
	mux.HandleFunc("/items/search", srv.handleItemSearch)
	mux.HandleFunc("/items/", srv.handleItemByID)

	mux.HandleFunc("/requests", srv.handleRequests)
	mux.HandleFunc("/requests/all", srv.handleRequestsAll)
	mux.HandleFunc("/requests/", srv.handleRequestByID)

	mux.HandleFunc("/bookings", srv.handleBookings)
	mux.HandleFunc("/bookings/owner", srv.handleOwnerBookings)
	mux.HandleFunc("/bookings/owner/export", srv.handleOwnerExport)
	mux.HandleFunc("/bookings/", srv.handleBookingByID)

	handler := srv.requestIDMiddleware(srv.loggingMiddleware(srv.rateLimitMiddleware(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler exposes the middleware-wrapped root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, kind, message string) {
	writeJSON(w, statusCode, errorBody{Error: kind, ErrorMessage: message})
}

// writeDomainError is the single boundary translator from typed domain
// errors to HTTP statuses. Anything unclassified becomes a 500 with a
// generic message.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		writeError(w, statusFor(ae.Kind), string(ae.Kind), ae.Message)
		return
	}
	s.log.Error().Err(err).Msg("unhandled error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sharerID reads the self-declared caller identity header.
func sharerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(headerSharerID))
	if raw == "" {
		return 0, apperr.Validation("missing required header %s", headerSharerID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s header: %s", headerSharerID, raw)
	}
	return id, nil
}

func pathID(r *http.Request, prefix string) (int64, error) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		return 0, apperr.NotFound("no resource at %s", r.URL.Path)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id in path: %s", raw)
	}
	return id, nil
}

// pagination reads the from/size query parameters with defaults 0 and
// models.DefaultPaginationSize.
func pagination(r *http.Request) (offset, limit int, err error) {
	offset = 0
	limit = models.DefaultPaginationSize

	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, apperr.Validation("invalid from parameter: %s", raw)
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("size")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > models.MaxPaginationSize {
			return 0, 0, apperr.Validation("invalid size parameter: %s", raw)
		}
	}
	return offset, limit, nil
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}
