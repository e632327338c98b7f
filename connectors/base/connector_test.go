// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compiledConfig() Config {
	return Config{
		Instances: []Instance{
			{ID: "a", Name: "Compiled", BaseURL: "https://compiled", Auth: NoAuth{}, IsActive: true, Tags: []string{}},
		},
		DefaultRefreshInterval: 300,
		RateLimiting:           RateLimiting{RequestsPerMinute: 60, BurstSize: 10},
	}
}

func TestConfig_MergeFrom_InstancesReplaced(t *testing.T) {
	raw := []byte(`{"instances":[{"id":"b","name":"Disk","baseUrl":"https://disk","authType":"bearer","authConfig":{"token":"t"},"isActive":false,"tags":["x"]}]}`)

	merged, err := compiledConfig().MergeFrom(raw)
	require.NoError(t, err)

	require.Len(t, merged.Instances, 1)
	assert.Equal(t, "b", merged.Instances[0].ID)
	assert.Equal(t, BearerAuth{Token: "t"}, merged.Instances[0].Auth)
	assert.Equal(t, 300, merged.DefaultRefreshInterval, "absent keys keep compiled values")
	assert.Equal(t, 60, merged.RateLimiting.RequestsPerMinute)
}

func TestConfig_MergeFrom_TopLevelOverride(t *testing.T) {
	raw := []byte(`{"defaultRefreshInterval":60,"rateLimiting":{"requestsPerMinute":5,"burstSize":1}}`)

	merged, err := compiledConfig().MergeFrom(raw)
	require.NoError(t, err)

	assert.Equal(t, 60, merged.DefaultRefreshInterval)
	assert.Equal(t, RateLimiting{RequestsPerMinute: 5, BurstSize: 1}, merged.RateLimiting)
	require.Len(t, merged.Instances, 1, "instances untouched when absent from the file")
	assert.Equal(t, "a", merged.Instances[0].ID)
}

func TestConfig_MergeFrom_PartialRateLimitingReplacesWhole(t *testing.T) {
	merged, err := compiledConfig().MergeFrom([]byte(`{"rateLimiting":{"requestsPerMinute":5}}`))
	require.NoError(t, err)

	assert.Equal(t, RateLimiting{RequestsPerMinute: 5}, merged.RateLimiting)
	assert.Equal(t, 300, merged.DefaultRefreshInterval)
}

func TestConfig_MergeFrom_EmptyInstances(t *testing.T) {
	merged, err := compiledConfig().MergeFrom([]byte(`{"instances":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, merged.Instances)
	assert.Empty(t, merged.Instances)
}

func TestConfig_MergeFrom_Invalid(t *testing.T) {
	base := compiledConfig()
	_, err := base.MergeFrom([]byte(`{"instances":`))
	assert.Error(t, err)
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := compiledConfig()
	cfg.Instances[0].Tags = []string{"one"}
	cfg.Instances[0].SSLConfig = &SSLConfig{AllowSelfSigned: Bool(true)}

	cp := cfg.Clone()
	cp.Instances[0].Tags[0] = "changed"
	*cp.Instances[0].SSLConfig.AllowSelfSigned = false
	cp.Instances[0].Name = "changed"

	assert.Equal(t, "one", cfg.Instances[0].Tags[0])
	assert.True(t, *cfg.Instances[0].SSLConfig.AllowSelfSigned)
	assert.Equal(t, "Compiled", cfg.Instances[0].Name)
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{}.Normalize()
	assert.NotNil(t, cfg.Instances)

	cfg = Config{Instances: []Instance{{ID: "x"}}}.Normalize()
	assert.Equal(t, NoAuth{}, cfg.Instances[0].Auth)
	assert.Equal(t, []string{}, cfg.Instances[0].Tags)
}

func TestConfig_FindInstance(t *testing.T) {
	cfg := compiledConfig()
	assert.Equal(t, 0, cfg.FindInstance("a"))
	assert.Equal(t, -1, cfg.FindInstance("missing"))
}

func TestInstance_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		auth AuthConfig
	}{
		{"none", NoAuth{}},
		{"basic", BasicAuth{Username: "u", Password: "p"}},
		{"bearer", BearerAuth{Token: "t"}},
		{"api key", APIKeyAuth{Key: "k", Header: "X-Key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Instance{
				ID:        "id-1",
				Name:      "Prod",
				BaseURL:   "https://example.com",
				Auth:      tt.auth,
				IsActive:  true,
				Tags:      []string{"prod"},
				SSLConfig: &SSLConfig{RejectUnauthorized: Bool(false), Timeout: 5000},
			}
			raw, err := json.Marshal(in)
			require.NoError(t, err)

			var wire map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &wire))
			assert.Equal(t, string(tt.auth.Type()), wire["authType"])
			assert.Equal(t, "https://example.com", wire["baseUrl"])

			var out Instance
			require.NoError(t, json.Unmarshal(raw, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestInstance_UnknownAuthType(t *testing.T) {
	var inst Instance
	err := json.Unmarshal([]byte(`{"id":"x","authType":"kerberos"}`), &inst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestInstance_MissingAuthTypeIsNone(t *testing.T) {
	var inst Instance
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","name":"n"}`), &inst))
	assert.Equal(t, AuthNone, inst.AuthType())
}

func TestInstance_AuthTypeNil(t *testing.T) {
	assert.Equal(t, AuthNone, Instance{}.AuthType())
}

func TestUpstreamError_Truncates(t *testing.T) {
	err := NewUpstreamError(500, strings.Repeat("x", 500))
	assert.Equal(t, 500, err.StatusCode)
	assert.Len(t, err.Body, MaxErrorBodyLength+3)
	assert.True(t, strings.HasPrefix(err.Error(), "HTTP 500: "))
	assert.True(t, strings.HasSuffix(err.Error(), "..."))

	short := NewUpstreamError(404, "nope")
	assert.Equal(t, "HTTP 404: nope", short.Error())
}

func TestSentinelWrapping(t *testing.T) {
	assert.True(t, errors.Is(NotFoundError("instance", "x"), ErrNotFound))
	assert.True(t, errors.Is(InactiveError("jira", "x"), ErrInactive))
	assert.False(t, errors.Is(InactiveError("jira", "x"), ErrNotFound))

	cause := errors.New("disk full")
	perr := &PersistenceError{Plugin: "jira", Cause: cause}
	assert.True(t, errors.Is(perr, cause))

	plugErr := NewPluginError("jira", "ExecuteQuery", "request failed", cause)
	assert.Contains(t, plugErr.Error(), "jira.ExecuteQuery: request failed")
	assert.True(t, errors.Is(plugErr, cause))
}
