// Package api serves resolution results and rewrite tables over HTTP.
//
// The API is read-mostly and meant for previews and administration:
//
//	GET    /healthz
//	GET    /v1/resolve/{base}/{type}/{id}
//	GET    /v1/trace/{base}/{type}/{id}
//	GET    /v1/route?path=/hello/social-image.jpg
//	GET    /v1/rewrite
//	POST   /v1/rewrite/invalidate
//	GET    /v1/diagnostics?scope=site
//	GET    /v1/settings?scope=site
//	PUT    /v1/settings/{key}?scope=site
//	DELETE /v1/settings/{key}?scope=site
//
// Errors are JSON objects carrying the error code and a user-facing
// message; the status follows the code.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/resolve"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

const (
	// maxBody bounds settings writes.
	maxBody         = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Server exposes a resolver over HTTP.
type Server struct {
	Resolver *resolve.Resolver
	Logger   *log.Logger
}

// New creates a server. A nil logger discards output.
func New(r *resolve.Resolver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{Resolver: r, Logger: logger}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/resolve/{base}/{type}/{id}", s.handleResolve)
		r.Get("/trace/{base}/{type}/{id}", s.handleTrace)
		r.Get("/route", s.handleRoute)
		r.Get("/rewrite", s.handleRewrite)
		r.Post("/rewrite/invalidate", s.handleInvalidate)
		r.Get("/diagnostics", s.handleDiagnostics)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleListSettings)
			r.Put("/{key}", s.handleSetSetting)
			r.Delete("/{key}", s.handleDeleteSetting)
		})
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.Logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// =============================================================================
// Resolution
// =============================================================================

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	b, err := s.Resolver.Resolve(r.Context(), ref)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	ref, err := refParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := ref.Validate(); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Resolver.Trace(r.Context(), ref))
}

func refParam(r *http.Request) (entity.Ref, error) {
	base, err := entity.ParseBase(chi.URLParam(r, "base"))
	if err != nil {
		return entity.Ref{}, err
	}
	return entity.Ref{Base: base, Type: chi.URLParam(r, "type"), ID: chi.URLParam(r, "id")}, nil
}

// =============================================================================
// Rewrite
// =============================================================================

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.fail(w, errors.New(errors.ErrCodeInvalidInput, "path is required"))
		return
	}
	out, err := s.Resolver.Route(r.Context(), path)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	if s.Resolver.Routes.Current() == nil {
		if err := s.Resolver.RebuildRoutes(r.Context()); err != nil {
			s.fail(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.Resolver.Routes.Current())
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if err := s.Resolver.Routes.Invalidate(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Settings
// =============================================================================

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	scope, err := s.scope(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	diag, err := settings.LoadDiagnostics(r.Context(), s.Resolver.Store, scope)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diag)
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	scope, err := s.scope(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	values, err := s.Resolver.Store.List(r.Context(), scope)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

type settingBody struct {
	Value string `json:"value"`
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	scope, err := s.scope(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body settingBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		s.fail(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode body"))
		return
	}
	key := chi.URLParam(r, "key")
	if err := s.guarded().Set(r.Context(), scope, key, body.Value); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	scope, err := s.scope(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Resolver.Store.Delete(r.Context(), scope, chi.URLParam(r, "key")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) guarded() *settings.Guarded {
	return settings.Guard(s.Resolver.Store, s.Resolver.Cascade.Schema)
}

func (s *Server) scope(r *http.Request) (settings.Scope, error) {
	if s.Resolver.Store == nil {
		return settings.Scope{}, errors.New(errors.ErrCodeUnsupported, "no settings store attached")
	}
	return settings.ParseScope(r.URL.Query().Get("scope"))
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

// Status maps an error code to an HTTP status.
func Status(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidColor, errors.ErrCodeInvalidPosition,
		errors.ErrCodeInvalidLength, errors.ErrCodeInvalidOption, errors.ErrCodeUnknownOption,
		errors.ErrCodeInvalidEntity, errors.ErrCodeInvalidRule, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeAttachmentNotFound,
		errors.ErrCodeFontNotFound, errors.ErrCodeNoImage:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported, errors.ErrCodeInvalidConfig:
		return http.StatusNotImplemented
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork, errors.ErrCodeStore:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
