// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/integrations"
	"opsbridge/platform/shared/logger"
)

// UserHeader carries the caller identity
const UserHeader = "X-User-ID"

// AnonymousUser owns records created without UserHeader
const AnonymousUser = "anonymous"

const maxBodyBytes = 1 << 20

// Handler serves the plugin routes
type Handler struct {
	svc    *integrations.Service
	logger *logger.Logger
}

// NewHandler creates a Handler backed by svc
func NewHandler(svc *integrations.Service, l *logger.Logger) *Handler {
	if l == nil {
		l = logger.New("api")
	}
	return &Handler{svc: svc, logger: l}
}

// Register mounts every route on r
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.listPlugins).Methods(http.MethodGet)
	r.HandleFunc("/available", h.availablePlugins).Methods(http.MethodGet)
	r.HandleFunc("/instances", h.allInstances).Methods(http.MethodGet)
	r.HandleFunc("/types", h.types).Methods(http.MethodGet)
	r.HandleFunc("/health", h.sweep).Methods(http.MethodGet)

	r.HandleFunc("/saved-queries", h.listSavedQueries).Methods(http.MethodGet)
	r.HandleFunc("/saved-queries/{id}/execute", h.executeSaved).Methods(http.MethodPost)
	r.HandleFunc("/saved-queries/{id}", h.deleteSavedQuery).Methods(http.MethodDelete)

	r.HandleFunc("/widgets", h.listWidgets).Methods(http.MethodGet)
	r.HandleFunc("/widgets", h.createWidget).Methods(http.MethodPost)
	r.HandleFunc("/widgets/{id}/execute", h.executeWidget).Methods(http.MethodPost)
	r.HandleFunc("/widgets/{id}", h.deleteWidget).Methods(http.MethodDelete)

	r.HandleFunc("/instances/{plugin}", h.createInstance).Methods(http.MethodPost)
	r.HandleFunc("/instances/{plugin}/{id}", h.updateInstance).Methods(http.MethodPut)
	r.HandleFunc("/instances/{plugin}/{id}/toggle", h.toggleInstance).Methods(http.MethodPost)
	r.HandleFunc("/instances/{plugin}/{id}", h.deleteInstance).Methods(http.MethodDelete)

	r.HandleFunc("/{plugin}/instances", h.pluginInstances).Methods(http.MethodGet)
	r.HandleFunc("/{plugin}/queries", h.defaultQueries).Methods(http.MethodGet)
	r.HandleFunc("/{plugin}/instances/{id}/test-connection", h.testConnection).Methods(http.MethodPost)
	r.HandleFunc("/{plugin}/instances/{id}/validate-query", h.validateQuery).Methods(http.MethodPost)
	r.HandleFunc("/{plugin}/instances/{id}/query", h.executeAdHoc).Methods(http.MethodPost)
	r.HandleFunc("/{plugin}/instances/{id}/default-query/{qid}", h.executeDefault).Methods(http.MethodPost)
}

// Logging records one line per request with its status and latency
func (h *Handler) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
		}
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		if rec.status >= http.StatusInternalServerError {
			fields["duration_ms"] = elapsed
			h.logger.Error("", "request failed", fields)
			return
		}
		h.logger.InfoWithDuration("", "request handled", elapsed, fields)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func userID(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(UserHeader)); u != "" {
		return u
	}
	return AnonymousUser
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: malformed JSON body: %v", base.ErrInvalid, err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("", "failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

// writeError maps the error taxonomy onto HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	h.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

func statusFor(err error) int {
	var upstream *base.UpstreamError
	var persist *base.PersistenceError
	switch {
	case errors.Is(err, base.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, base.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, base.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, base.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &persist):
		return http.StatusInternalServerError
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
