// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package http

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/sdk"
)

// SystemName is the registry key of the generic REST connector
const SystemName = "rest"

// DefaultQueries is the catalog of the generic REST connector. The root probe
// comes first so it doubles as the health check.
var DefaultQueries = []base.QueryDefinition{
	{ID: "root", Method: "GET", Path: "/", Description: "Root endpoint reachability probe"},
	{ID: "health", Method: "GET", Path: "/health", Description: "Conventional health endpoint"},
	{ID: "status", Method: "GET", Path: "/status", Description: "Conventional status endpoint"},
	{ID: "version", Method: "GET", Path: "/version", Description: "Service version"},
}

// Connector executes queries as relative paths against an instance base URL.
// Other generic-REST connectors embed it with their own PluginInfo.
type Connector struct {
	*sdk.BasePlugin
}

// NewConnector creates a REST-style connector with the given description
func NewConnector(info sdk.PluginInfo) *Connector {
	return &Connector{BasePlugin: sdk.NewBasePlugin(info)}
}

// New creates the generic "rest" connector with cfg as compiled defaults
func New(cfg base.Config) *Connector {
	return NewConnector(sdk.PluginInfo{
		SystemName:     SystemName,
		DisplayName:    "Generic REST API",
		Category:       "integration",
		DefaultQueries: DefaultQueries,
		Config:         cfg,
	})
}

// DefaultConfig seeds the Default instance from REST_URL, REST_API_KEY and
// REST_API_KEY_HEADER
func DefaultConfig() base.Config {
	return config.EnvInstance{
		Plugin:       SystemName,
		URLVar:       "REST_URL",
		AuthType:     base.AuthAPIKey,
		KeyVar:       "REST_API_KEY",
		KeyHeaderVar: "REST_API_KEY_HEADER",
	}.Config()
}

// ExecuteQuery issues method against BuildURL(instance.BaseURL, query). An
// optional opts.Body is sent as JSON.
func (c *Connector) ExecuteQuery(ctx context.Context, query, method, instanceID string, opts *base.QueryOptions) (*base.Result, error) {
	inst, err := c.ResolveActive(instanceID)
	if err != nil {
		return nil, err
	}

	req := sdk.Request{
		Operation: "ExecuteQuery",
		Method:    method,
		URL:       BuildURL(inst.BaseURL, query),
	}
	if opts != nil {
		req.Body = opts.Body
		req.Headers = opts.Headers
	}

	return c.Do(ctx, inst, req)
}

// ValidateQuery flags absolute URLs that leave the instance host, since the
// instance credentials would be sent there.
func (c *Connector) ValidateQuery(inst base.Instance, query string) ([]string, []string) {
	return ValidatePath(inst, query)
}

// ValidatePath holds the checks shared by every REST-style connector
func ValidatePath(inst base.Instance, query string) (warnings []string, suggestions []string) {
	warnings, suggestions = []string{}, []string{}

	q := strings.TrimSpace(query)
	if q == "" {
		warnings = append(warnings, "Query path is empty; the instance root will be requested")
		return warnings, suggestions
	}

	if strings.ContainsAny(q, " \t\n") {
		warnings = append(warnings, "Query path contains whitespace")
		suggestions = append(suggestions, "URL-encode spaces in path and query parameters")
	}

	if IsAbsoluteURL(q) {
		target, _ := url.Parse(q)
		home, err := url.Parse(inst.BaseURL)
		if err != nil || !strings.EqualFold(target.Host, home.Host) {
			warnings = append(warnings, fmt.Sprintf(
				"Absolute URL targets %s instead of the instance host; instance credentials will be sent there", target.Host))
			suggestions = append(suggestions, "Use a path relative to the instance base URL")
		}
	}

	return warnings, suggestions
}

// BuildURL appends path to baseURL with exactly one separating slash. An
// absolute http(s) URL is returned unchanged.
func BuildURL(baseURL, path string) string {
	if IsAbsoluteURL(path) {
		return path
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// IsAbsoluteURL reports whether s is an http or https URL with a host
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
