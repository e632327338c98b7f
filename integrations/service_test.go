// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsbridge/platform/connectors/base"
	rest "opsbridge/platform/connectors/http"
	"opsbridge/platform/connectors/registry"
	"opsbridge/platform/connectors/sdk"
	"opsbridge/platform/ratelimit"
	"opsbridge/platform/shared/logger"
)

type upstream struct {
	server *httptest.Server
	hits   int32
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) Hits() int32 { return atomic.LoadInt32(&u.hits) }

func newRest(instances ...base.Instance) *rest.Connector {
	c := rest.New(base.Config{Instances: instances})
	c.SetLogger(logger.Discard("rest"))
	return c
}

func newService(t *testing.T, plugins []base.Plugin, opts ...Option) *Service {
	t.Helper()
	reg := registry.New(nil, registry.WithLogger(logger.Discard("registry")))
	for _, p := range plugins {
		reg.Register(p)
	}
	opts = append([]Option{WithLogger(logger.Discard("integrations"))}, opts...)
	return New(reg, opts...)
}

func active(id, baseURL string) base.Instance {
	return base.Instance{ID: id, Name: "Name " + id, BaseURL: baseURL, IsActive: true}
}

func inactiveInst(id, baseURL string) base.Instance {
	return base.Instance{ID: id, Name: "Name " + id, BaseURL: baseURL, IsActive: false}
}

func TestTestConnection_Healthy(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"ok":true}`)
	svc := newService(t, []base.Plugin{newRest(active("rest-1", up.server.URL))})

	res, err := svc.TestConnection(context.Background(), "REST", "rest-1")
	require.NoError(t, err)

	assert.Equal(t, StatusHealthy, res.Status)
	assert.GreaterOrEqual(t, res.ResponseTime, int64(0))
	assert.Equal(t, "rest", res.PluginName)
	assert.Equal(t, "Name rest-1", res.InstanceName)
	assert.Equal(t, int32(1), up.Hits())
}

func TestTestConnection_ConnectionRefused(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := dead.URL
	dead.Close()

	svc := newService(t, []base.Plugin{newRest(active("rest-1", url))})

	res, err := svc.TestConnection(context.Background(), "rest", "rest-1")
	require.NoError(t, err)

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "service may be down")
	assert.NotContains(t, res.Message, "dial tcp")
}

func TestTestConnection_AuthFailure(t *testing.T) {
	up := newUpstream(t, http.StatusUnauthorized, `{"error":"bad token"}`)
	svc := newService(t, []base.Plugin{newRest(active("rest-1", up.server.URL))})

	res, err := svc.TestConnection(context.Background(), "rest", "rest-1")
	require.NoError(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Message, "Authentication failed")
}

func TestTestConnection_InactiveMakesNoCall(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	svc := newService(t, []base.Plugin{newRest(inactiveInst("rest-off", up.server.URL))})

	res, err := svc.TestConnection(context.Background(), "rest", "rest-off")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, res.Status)
	assert.Equal(t, int32(0), up.Hits())
}

func TestTestConnection_NotFound(t *testing.T) {
	svc := newService(t, []base.Plugin{newRest()})

	_, err := svc.TestConnection(context.Background(), "rest", "ghost")
	assert.ErrorIs(t, err, base.ErrNotFound)

	_, err = svc.TestConnection(context.Background(), "ghost", "x")
	assert.ErrorIs(t, err, base.ErrNotFound)
}

func TestTestConnection_NoCatalogIsUnknown(t *testing.T) {
	m := sdk.NewMockPlugin("bare", nil, active("bare-1", "https://bare.local"))
	svc := newService(t, []base.Plugin{m})

	res, err := svc.TestConnection(context.Background(), "bare", "bare-1")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, res.Status)
	assert.Equal(t, 0, m.CallCount())
}

func TestExecute_InactiveIsSuccessEnvelope(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{}`)
	svc := newService(t, []base.Plugin{newRest(inactiveInst("rest-off", up.server.URL))})

	res, err := svc.ExecuteAdHoc(context.Background(), "rest", "rest-off", "alice", AdHocRequest{Query: "/x", SaveAs: "x"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, StatusInactive, res.Status)
	assert.Nil(t, res.Data)
	assert.Empty(t, res.SavedQueryID, "inactive runs are never saved")
	assert.Equal(t, int32(0), up.Hits())

	_, err = svc.ExecuteAdHoc(context.Background(), "rest", "missing", "alice", AdHocRequest{Query: "/x"})
	assert.ErrorIs(t, err, base.ErrNotFound)
	assert.False(t, errors.Is(err, base.ErrInactive))
}

func TestExecuteAdHoc_SaveAndReplay(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `{"items":[1,2]}`)
	svc := newService(t, []base.Plugin{newRest(active("rest-1", up.server.URL))})
	ctx := context.Background()

	res, err := svc.ExecuteAdHoc(ctx, "rest", "rest-1", "alice", AdHocRequest{Query: "/items", Method: "get", SaveAs: "Items"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "GET", res.Method)
	assert.NotEmpty(t, res.RequestID)
	assert.GreaterOrEqual(t, res.ExecutionTime, int64(0))
	require.NotEmpty(t, res.SavedQueryID)

	saved, err := svc.ListSavedQueries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "/items", saved[0].Query)

	replay, err := svc.ExecuteSaved(ctx, res.SavedQueryID, "alice")
	require.NoError(t, err)
	assert.Equal(t, res.SavedQueryID, replay.SavedQueryID)
	assert.Equal(t, map[string]interface{}{"items": []interface{}{float64(1), float64(2)}}, replay.Data)

	_, err = svc.ExecuteSaved(ctx, res.SavedQueryID, "mallory")
	assert.ErrorIs(t, err, base.ErrNotFound)

	assert.Equal(t, int32(2), up.Hits())

	require.NoError(t, svc.DeleteSavedQuery(ctx, res.SavedQueryID, "alice"))
	_, err = svc.ExecuteSaved(ctx, res.SavedQueryID, "alice")
	assert.ErrorIs(t, err, base.ErrNotFound)
}

func TestExecuteAdHoc_RequiresQuery(t *testing.T) {
	svc := newService(t, []base.Plugin{newRest(active("rest-1", "https://x.local"))})
	_, err := svc.ExecuteAdHoc(context.Background(), "rest", "rest-1", "alice", AdHocRequest{Query: "  "})
	assert.ErrorIs(t, err, base.ErrInvalid)
}

func TestExecuteAdHoc_UpstreamErrorPropagates(t *testing.T) {
	up := newUpstream(t, http.StatusBadGateway, `upstream exploded`)
	svc := newService(t, []base.Plugin{newRest(active("rest-1", up.server.URL))})

	_, err := svc.ExecuteAdHoc(context.Background(), "rest", "rest-1", "alice", AdHocRequest{Query: "/", SaveAs: "x"})
	var ue *base.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusBadGateway, ue.StatusCode)

	saved, _ := svc.ListSavedQueries(context.Background(), "alice")
	assert.Empty(t, saved)
}

func TestExecuteDefault(t *testing.T) {
	m := sdk.NewMockPlugin("mock", []base.QueryDefinition{
		{ID: "probe", Method: "GET", Path: "/probe"},
		{ID: "alerts", Method: "POST", Path: "/alerts"},
	}, active("mock-1", "https://mock.local"))
	svc := newService(t, []base.Plugin{m})

	res, err := svc.ExecuteDefault(context.Background(), "mock", "mock-1", "alerts")
	require.NoError(t, err)
	assert.Equal(t, "alerts", res.QueryID)
	require.Len(t, m.Calls(), 1)
	assert.Equal(t, "/alerts", m.Calls()[0].Query)
	assert.Equal(t, "POST", m.Calls()[0].Method)

	_, err = svc.ExecuteDefault(context.Background(), "mock", "mock-1", "nope")
	assert.ErrorIs(t, err, base.ErrNotFound)
}

func TestExecute_RateLimited(t *testing.T) {
	m := sdk.NewMockPlugin("mock", nil, active("mock-1", "https://mock.local"))
	cfg := m.Config()
	cfg.RateLimiting = base.RateLimiting{RequestsPerMinute: 1, BurstSize: 1}
	m.SetConfig(cfg)

	svc := newService(t, []base.Plugin{m}, WithLimiter(ratelimit.NewMemoryLimiter()))
	ctx := context.Background()

	_, err := svc.ExecuteAdHoc(ctx, "mock", "mock-1", "alice", AdHocRequest{Query: "/a"})
	require.NoError(t, err)

	_, err = svc.ExecuteAdHoc(ctx, "mock", "mock-1", "alice", AdHocRequest{Query: "/a"})
	assert.ErrorIs(t, err, base.ErrRateLimited)
	assert.Equal(t, 1, m.CallCount())
}

func TestValidateQuery(t *testing.T) {
	svc := newService(t, []base.Plugin{
		newRest(active("rest-1", "https://api.local")),
		sdk.NewMockPlugin("mock", nil, active("mock-1", "https://mock.local")),
	})

	res, err := svc.ValidateQuery("rest", "rest-1", "https://elsewhere.example/x")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Len(t, res.Warnings, 1)

	res, err = svc.ValidateQuery("mock", "mock-1", "anything")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Warnings)
	assert.NotNil(t, res.Suggestions)

	_, err = svc.ValidateQuery("rest", "ghost", "/")
	assert.ErrorIs(t, err, base.ErrNotFound)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"refused", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), "service may be down"},
		{"econnrefused", errors.New("ECONNREFUSED"), "service may be down"},
		{"dns", errors.New("dial tcp: lookup jira.invalid: no such host"), "Cannot resolve hostname"},
		{"401", base.NewPluginError("jira", "Search", "upstream error", base.NewUpstreamError(401, "nope")), "Authentication failed"},
		{"403", base.NewUpstreamError(403, "forbidden"), "Permission denied"},
		{"timeout", errors.New("Client.Timeout exceeded while awaiting headers"), "slow or unreachable"},
		{"deadline", context.DeadlineExceeded, "slow or unreachable"},
		{"tls", errors.New("x509: certificate signed by unknown authority"), "TLS certificate"},
		{"rate limit", base.ErrRateLimited, "Rate limit"},
		{"other", errors.New("HTTP 500: boom"), "HTTP 500: boom"},
		{"401 in text", errors.New("server replied 401 Unauthorized"), "Authentication failed"},
		{"status in host name", &url.Error{Op: "Get", URL: "https://fw-401.corp/api", Err: context.DeadlineExceeded},
			"slow or unreachable"},
		{"status in port", &url.Error{Op: "Get", URL: "https://fw.corp:4403/api", Err: errors.New("EOF")},
			`Get "https://fw.corp:4403/api": EOF`},
		{"status code wins over body text", base.NewUpstreamError(500, "token 401 expired"), "HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, ClassifyError(tt.err), tt.want)
		})
	}
	assert.Empty(t, ClassifyError(nil))
}
