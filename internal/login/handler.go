// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package login

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Handler configuration.
const (
	// DefaultRequestTimeout bounds how long a login POST may stay pending
	// on the account store before the generic failure shape is returned.
	DefaultRequestTimeout = 15 * time.Second

	// maxBodyBytes caps the login submission body. The form carries two
	// short inputs; anything larger is garbage.
	maxBodyBytes = 64 << 10

	contentTypeJSON = "application/json;charset=utf-8"
)

const decodeErrorMessage = "There was an internal error while connecting to the login service. Please try again later."

// Handler exposes the login REST surface over HTTP.
type Handler struct {
	service *Service
	form    FormInputs
	logger  *slog.Logger
	timeout time.Duration
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger attaches a logger to the request middleware.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// WithRequestTimeout overrides the per-request pipeline deadline.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.timeout = d }
}

// NewHandler creates a Handler serving the given login service.
func NewHandler(service *Service, opts ...HandlerOption) (*Handler, error) {
	if service == nil {
		return nil, oops.Errorf("login service is required")
	}
	h := &Handler{
		service: service,
		form:    NewFormInputs(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes builds the router: GET and POST under /login/, everything else 404.
// Unknown methods also return 404, preserving the legacy service's behavior.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestLogger)
	r.MethodNotAllowed(http.NotFound)

	r.Route("/login", func(r chi.Router) {
		r.Get("/", h.handleForm)
		r.Get("/*", h.handleForm)
		r.Post("/", h.handleLogin)
		r.Post("/*", h.handleLogin)
	})

	return r
}

// handleForm serves the static form descriptor.
func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.respond(r.Context(), w, http.StatusOK, h.form)
}

// handleLogin decodes a submission and drives the asynchronous pipeline. A
// body that fails to decode is rejected synchronously with a 400 and never
// reaches the account store.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form LoginForm
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&form); err != nil {
		h.logger.DebugContext(r.Context(), "undecodable login submission",
			"remote_addr", r.RemoteAddr, "error", err)
		h.respond(r.Context(), w, http.StatusBadRequest, LoginResult{
			AuthenticationState: StateLogin,
			ErrorCode:           "UNABLE_TO_DECODE",
			ErrorMessage:        decodeErrorMessage,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	req := h.service.Login(ctx, &form, r.RemoteAddr)
	result := req.Wait(ctx)
	h.respond(r.Context(), w, http.StatusOK, result)
}

// respond writes the serialized payload exactly once with the given status.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WarnContext(ctx, "failed to write response", "error", err)
	}
}

// requestLogger tags every request with a ULID and logs its outcome.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := ulid.Make().String()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		start := time.Now()
		next.ServeHTTP(ww, r)

		h.logger.DebugContext(r.Context(), "request handled",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
