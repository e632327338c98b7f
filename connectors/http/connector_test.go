// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/shared/logger"
)

func newConnector(instances ...base.Instance) *Connector {
	c := New(base.Config{Instances: instances})
	c.SetLogger(logger.Discard(SystemName))
	return c
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		path    string
		want    string
	}{
		{"relative path", "https://fw.local", "monitor/system/status", "https://fw.local/monitor/system/status"},
		{"leading slash", "https://fw.local", "/monitor/system/status", "https://fw.local/monitor/system/status"},
		{"trailing slash on base", "https://fw.local/", "/monitor/system/status", "https://fw.local/monitor/system/status"},
		{"absolute passthrough", "https://fw.local", "https://other.host/x", "https://other.host/x"},
		{"root", "https://api.local/v1", "/", "https://api.local/v1/"},
		{"query string kept", "https://api.local", "items?limit=5", "https://api.local/items?limit=5"},
		{"non-http scheme is treated as a path", "https://api.local", "ftp://x/y", "https://api.local/ftp://x/y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildURL(tt.baseURL, tt.path))
		})
	}
}

func TestNew_Catalog(t *testing.T) {
	c := newConnector()
	assert.Equal(t, "rest", c.SystemName())
	require.NotEmpty(t, c.DefaultQueries())
	assert.Equal(t, "/", c.DefaultQueries()[0].Path)
}

func TestExecuteQuery_JSON(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
	}))
	defer server.Close()

	c := newConnector(base.Instance{
		ID: "rest-1", Name: "API", BaseURL: server.URL, IsActive: true,
		Auth: base.APIKeyAuth{Key: "k", Header: "X-API-Key"},
	})

	res, err := c.ExecuteQuery(context.Background(), "v1/health", "GET", "rest-1", nil)
	require.NoError(t, err)

	assert.Equal(t, "/v1/health", gotPath)
	assert.Equal(t, "k", gotKey)
	assert.Equal(t, map[string]interface{}{"status": "ok"}, res.Data)
}

func TestExecuteQuery_TextAndBody(t *testing.T) {
	var gotMethod, gotBody, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Trace")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("accepted"))
	}))
	defer server.Close()

	c := newConnector(base.Instance{ID: "rest-1", BaseURL: server.URL, IsActive: true})

	res, err := c.ExecuteQuery(context.Background(), "/jobs", "POST", "rest-1", &base.QueryOptions{
		Body:    map[string]interface{}{"name": "sync"},
		Headers: map[string]string{"X-Trace": "abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"name":"sync"}`, gotBody)
	assert.Equal(t, "abc", gotHeader)
	assert.Equal(t, "accepted", res.Data)
}

func TestExecuteQuery_UpstreamErrorTruncatesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	c := newConnector(base.Instance{ID: "rest-1", BaseURL: server.URL, IsActive: true})

	_, err := c.ExecuteQuery(context.Background(), "/", "GET", "rest-1", nil)
	require.Error(t, err)

	var upstream *base.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 500, upstream.StatusCode)
	assert.Equal(t, strings.Repeat("x", 200)+"...", upstream.Body)
}

func TestExecuteQuery_InactiveAndUnknown(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	c := newConnector(base.Instance{ID: "rest-off", BaseURL: server.URL, IsActive: false})

	_, err := c.ExecuteQuery(context.Background(), "/", "GET", "rest-off", nil)
	assert.ErrorIs(t, err, base.ErrInactive)

	_, err = c.ExecuteQuery(context.Background(), "/", "GET", "nope", nil)
	assert.ErrorIs(t, err, base.ErrNotFound)
	assert.NotErrorIs(t, err, base.ErrInactive)

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestValidateQuery(t *testing.T) {
	c := newConnector()
	inst := base.Instance{BaseURL: "https://api.local"}

	warnings, _ := c.ValidateQuery(inst, "/items")
	assert.Empty(t, warnings)

	warnings, _ = c.ValidateQuery(inst, "https://api.local/items")
	assert.Empty(t, warnings)

	warnings, suggestions := c.ValidateQuery(inst, "https://evil.example/collect")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "evil.example")
	assert.NotEmpty(t, suggestions)

	warnings, _ = c.ValidateQuery(inst, "  ")
	assert.Len(t, warnings, 1)

	warnings, suggestions = c.ValidateQuery(inst, "/search?q=a b")
	assert.Len(t, warnings, 1)
	assert.Len(t, suggestions, 1)
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("REST_URL", "https://api.local")
	t.Setenv("REST_API_KEY", "secret")
	t.Setenv("REST_API_KEY_HEADER", "X-Token")

	cfg := DefaultConfig()
	require.Len(t, cfg.Instances, 1)
	assert.Equal(t, "rest-default", cfg.Instances[0].ID)
	assert.Equal(t, base.APIKeyAuth{Key: "secret", Header: "X-Token"}, cfg.Instances[0].Auth)
}
