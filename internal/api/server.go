package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-translations/internal/auth"
	"github.com/goliatone/go-translations/internal/logging"
	"github.com/goliatone/go-translations/pkg/interfaces"
	"github.com/goliatone/go-translations/translations"
)

// HealthCheck reports whether the backing store is reachable.
type HealthCheck func(ctx context.Context) error

// Options wires the server's collaborators.
type Options struct {
	Repository      translations.Repository
	Auth            *auth.Service
	Health          HealthCheck
	PerMinute       int
	ExportPerMinute int
	Logger          interfaces.Logger
}

// Server exposes the translation repository over HTTP.
type Server struct {
	repo          translations.Repository
	auth          *auth.Service
	health        HealthCheck
	limiter       *KeyedLimiter
	exportLimiter *KeyedLimiter
	logger        interfaces.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Repository == nil {
		return nil, errors.New("api: repository is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("api: auth service is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	return &Server{
		repo:          opts.Repository,
		auth:          opts.Auth,
		health:        opts.Health,
		limiter:       NewKeyedLimiter(opts.PerMinute),
		exportLimiter: NewKeyedLimiter(opts.ExportPerMinute),
		logger:        logger,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	protect := func(limiter *KeyedLimiter, h http.HandlerFunc) http.Handler {
		return s.auth.Middleware(rateLimit(limiter, h))
	}

	mux.HandleFunc("POST /api/login", s.login)
	mux.HandleFunc("GET /healthz", s.healthz)

	mux.Handle("POST /api/translations", protect(s.limiter, s.createTranslation))
	mux.Handle("GET /api/translations/search", protect(s.limiter, s.searchTranslations))
	mux.Handle("GET /api/translations/export", protect(s.exportLimiter, s.exportTranslations))
	mux.Handle("GET /api/translations/{id}", protect(s.limiter, s.showTranslation))
	mux.Handle("PUT /api/translations/{id}", protect(s.limiter, s.updateTranslation))
	mux.Handle("DELETE /api/translations/{id}", protect(s.limiter, s.deleteTranslation))

	return s.logRequests(mux)
}

// Close stops the rate limiter cleanup loops.
func (s *Server) Close() error {
	return errors.Join(s.limiter.Close(), s.exportLimiter.Close())
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}
	if err := validate(req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, msgUnauthorized, nil)
			return
		}
		writeFailure(w, s.logger, err)
		return
	}

	writeData(w, http.StatusOK, map[string]any{
		"token":      token.Value,
		"expires_at": token.ExpiresAt,
		"user":       map[string]string{"email": token.Email},
	})
}

func (s *Server) createTranslation(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}
	if err := validate(req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}

	record, err := s.repo.Create(r.Context(), req.input())
	if err != nil {
		writeFailure(w, s.logger, err)
		return
	}
	writeData(w, http.StatusCreated, record)
}

func (s *Server) showTranslation(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, record)
}

func (s *Server) updateTranslation(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}
	if err := validate(req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}

	updated, err := s.repo.Update(r.Context(), record, req.input())
	if err != nil {
		writeFailure(w, s.logger, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *Server) deleteTranslation(w http.ResponseWriter, r *http.Request) {
	record, ok := s.lookup(w, r)
	if !ok {
		return
	}

	deleted, err := s.repo.Delete(r.Context(), record)
	if err != nil {
		writeFailure(w, s.logger, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, msgNotFound, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) searchTranslations(w http.ResponseWriter, r *http.Request) {
	req := newSearchRequest(r.URL.Query())
	if err := validate(req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}

	page, err := s.repo.Search(r.Context(), req.filters())
	if err != nil {
		writeFailure(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) exportTranslations(w http.ResponseWriter, r *http.Request) {
	req := exportRequest{Locale: r.URL.Query().Get("locale")}
	if err := validate(req); err != nil {
		writeFailure(w, s.logger, err)
		return
	}

	export, err := s.repo.ExportByLocale(r.Context(), req.Locale)
	if err != nil {
		writeFailure(w, s.logger, err)
		return
	}

	body, err := export.MarshalJSON()
	if err != nil {
		writeFailure(w, s.logger, err)
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, must-revalidate")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable", nil)
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// lookup resolves the {id} path value to a live translation, writing a 404
// when it is malformed or absent.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*translations.Translation, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, msgNotFound, nil)
		return nil, false
	}

	record, found, err := s.repo.FindByID(r.Context(), id)
	if err != nil {
		writeFailure(w, s.logger, err)
		return nil, false
	}
	if !found {
		writeError(w, http.StatusNotFound, msgNotFound, nil)
		return nil, false
	}
	return record, true
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
