// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"os"
	"strconv"
	"strings"

	"opsbridge/platform/connectors/base"
)

// DefaultInstanceName is the name of the instance seeded from env vars
const DefaultInstanceName = "Default"

// EnvInstance describes which environment variables seed a connector's
// compiled "Default" instance. Only URLVar is required; the instance is
// omitted when it is unset.
type EnvInstance struct {
	Plugin   string
	URLVar   string
	AuthType base.AuthType

	UsernameVar  string
	PasswordVar  string
	TokenVar     string
	KeyVar       string
	KeyHeaderVar string

	// VerifySSLVar, when set to a false value, disables certificate checks
	VerifySSLVar string
	Tags         []string
}

// Config builds the compiled default configuration for the plugin
func (e EnvInstance) Config() base.Config {
	cfg := base.Config{
		Instances:              []base.Instance{},
		DefaultRefreshInterval: base.DefaultRefreshInterval,
		RateLimiting:           base.RateLimiting{RequestsPerMinute: 60, BurstSize: 10},
	}

	baseURL := strings.TrimSpace(os.Getenv(e.URLVar))
	if baseURL == "" {
		return cfg
	}

	inst := base.Instance{
		ID:       DefaultInstanceID(e.Plugin),
		Name:     DefaultInstanceName,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Auth:     e.auth(),
		IsActive: true,
		Tags:     append([]string{"default"}, e.Tags...),
	}

	if e.VerifySSLVar != "" {
		if v, ok := os.LookupEnv(e.VerifySSLVar); ok {
			if verify, err := strconv.ParseBool(v); err == nil && !verify {
				inst.SSLConfig = &base.SSLConfig{RejectUnauthorized: base.Bool(false)}
			}
		}
	}

	cfg.Instances = append(cfg.Instances, inst)
	return cfg
}

func (e EnvInstance) auth() base.AuthConfig {
	switch e.AuthType {
	case base.AuthBasic:
		return base.BasicAuth{Username: getVar(e.UsernameVar), Password: getVar(e.PasswordVar)}
	case base.AuthBearer:
		return base.BearerAuth{Token: getVar(e.TokenVar)}
	case base.AuthAPIKey:
		return base.APIKeyAuth{Key: getVar(e.KeyVar), Header: getVar(e.KeyHeaderVar)}
	default:
		return base.NoAuth{}
	}
}

// DefaultInstanceID is the stable id of the env-seeded instance
func DefaultInstanceID(plugin string) string {
	return strings.ToLower(plugin) + "-default"
}

func getVar(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// GetEnv returns the variable or defaultValue when unset or empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool parses a boolean variable, returning defaultValue when unset or
// unparsable
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt parses an integer variable, returning defaultValue when unset or
// unparsable
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvList splits a comma separated variable, dropping empty entries
func GetEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
