// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsbridge/platform/connectors/base"
)

func TestEnvInstance_NoURL(t *testing.T) {
	t.Setenv("TEST_SYS_URL", "")

	cfg := EnvInstance{Plugin: "sys", URLVar: "TEST_SYS_URL"}.Config()
	assert.NotNil(t, cfg.Instances)
	assert.Empty(t, cfg.Instances)
	assert.Equal(t, base.DefaultRefreshInterval, cfg.DefaultRefreshInterval)
}

func TestEnvInstance_AuthVariants(t *testing.T) {
	t.Setenv("TEST_SYS_URL", "https://sys.local/")
	t.Setenv("TEST_SYS_USER", "admin")
	t.Setenv("TEST_SYS_PASS", "secret")
	t.Setenv("TEST_SYS_TOKEN", "tok")
	t.Setenv("TEST_SYS_KEY", "k")
	t.Setenv("TEST_SYS_HEADER", "X-Key")

	tests := []struct {
		name string
		env  EnvInstance
		want base.AuthConfig
	}{
		{"none", EnvInstance{}, base.NoAuth{}},
		{"basic", EnvInstance{AuthType: base.AuthBasic, UsernameVar: "TEST_SYS_USER", PasswordVar: "TEST_SYS_PASS"},
			base.BasicAuth{Username: "admin", Password: "secret"}},
		{"bearer", EnvInstance{AuthType: base.AuthBearer, TokenVar: "TEST_SYS_TOKEN"}, base.BearerAuth{Token: "tok"}},
		{"api key", EnvInstance{AuthType: base.AuthAPIKey, KeyVar: "TEST_SYS_KEY", KeyHeaderVar: "TEST_SYS_HEADER"},
			base.APIKeyAuth{Key: "k", Header: "X-Key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			env.Plugin = "Sys"
			env.URLVar = "TEST_SYS_URL"

			cfg := env.Config()
			require.Len(t, cfg.Instances, 1)
			inst := cfg.Instances[0]
			assert.Equal(t, "sys-default", inst.ID)
			assert.Equal(t, DefaultInstanceName, inst.Name)
			assert.Equal(t, "https://sys.local", inst.BaseURL)
			assert.True(t, inst.IsActive)
			assert.Equal(t, tt.want, inst.Auth)
			assert.Nil(t, inst.SSLConfig)
		})
	}
}

func TestEnvInstance_VerifySSL(t *testing.T) {
	t.Setenv("TEST_FW_URL", "https://fw.local")

	t.Setenv("TEST_FW_VERIFY", "false")
	cfg := EnvInstance{Plugin: "fw", URLVar: "TEST_FW_URL", VerifySSLVar: "TEST_FW_VERIFY"}.Config()
	require.Len(t, cfg.Instances, 1)
	require.NotNil(t, cfg.Instances[0].SSLConfig)
	assert.False(t, *cfg.Instances[0].SSLConfig.RejectUnauthorized)

	t.Setenv("TEST_FW_VERIFY", "true")
	cfg = EnvInstance{Plugin: "fw", URLVar: "TEST_FW_URL", VerifySSLVar: "TEST_FW_VERIFY"}.Config()
	assert.Nil(t, cfg.Instances[0].SSLConfig)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_BOOL", "maybe")
	t.Setenv("TEST_INT", "8")
	t.Setenv("TEST_LIST", "a, b,,c")

	assert.Equal(t, "value", GetEnv("TEST_STR", "x"))
	assert.Equal(t, "x", GetEnv("TEST_MISSING_STR", "x"))
	assert.True(t, GetEnvBool("TEST_BOOL", false))
	assert.True(t, GetEnvBool("TEST_BAD_BOOL", true))
	assert.Equal(t, 8, GetEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TEST_MISSING_INT", 1))
	assert.Equal(t, []string{"a", "b", "c"}, GetEnvList("TEST_LIST", nil))
	assert.Equal(t, []string{"*"}, GetEnvList("TEST_MISSING_LIST", []string{"*"}))
}
