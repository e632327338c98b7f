// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package jira provides the Jira ticketing connector.
// Queries are JQL expressions, except for the ServerInfoQuery sentinel which
// probes the server info endpoint.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/sdk"
)

const (
	// SystemName is the registry key of the Jira connector
	SystemName = "jira"
	// ServerInfoQuery is routed to the server info endpoint instead of search
	ServerInfoQuery = "serverInfo"
	// SearchMaxResults caps every JQL search
	SearchMaxResults = 50
	// MaxJQLLength is the length above which validation warns
	MaxJQLLength = 1000

	serverInfoPath = "/rest/api/2/serverInfo"
	searchPath     = "/rest/api/2/search"
)

// DefaultQueries is the Jira catalog. The server info probe is the health check.
var DefaultQueries = []base.QueryDefinition{
	{ID: "server-info", Method: "GET", Path: ServerInfoQuery, Description: "Server version and deployment type"},
	{ID: "open-security-issues", Method: "GET", Path: "project = SEC AND statusCategory != Done ORDER BY priority DESC", Description: "Unresolved security project issues"},
	{ID: "recent-incidents", Method: "GET", Path: "project = OPS AND issuetype = Incident AND created >= -7d ORDER BY created DESC", Description: "Incidents raised in the last 7 days"},
	{ID: "my-open-issues", Method: "GET", Path: "assignee = currentUser() AND resolution = Unresolved ORDER BY updated DESC", Description: "Issues assigned to the API user"},
}

// Connector talks to the Jira REST API v2
type Connector struct {
	*sdk.BasePlugin
}

// New creates the Jira connector with cfg as compiled defaults
func New(cfg base.Config) *Connector {
	return &Connector{
		BasePlugin: sdk.NewBasePlugin(sdk.PluginInfo{
			SystemName:     SystemName,
			DisplayName:    "Jira",
			Category:       "ticketing",
			DefaultQueries: DefaultQueries,
			Config:         cfg,
		}),
	}
}

// DefaultConfig seeds the Default instance from JIRA_URL, JIRA_USERNAME and
// JIRA_API_TOKEN
func DefaultConfig() base.Config {
	return config.EnvInstance{
		Plugin:      SystemName,
		URLVar:      "JIRA_URL",
		AuthType:    base.AuthBasic,
		UsernameVar: "JIRA_USERNAME",
		PasswordVar: "JIRA_API_TOKEN",
	}.Config()
}

// ExecuteQuery runs a JQL search, or the server info probe for
// ServerInfoQuery. Both are GET requests regardless of method.
func (c *Connector) ExecuteQuery(ctx context.Context, query, method, instanceID string, opts *base.QueryOptions) (*base.Result, error) {
	inst, err := c.ResolveActive(instanceID)
	if err != nil {
		return nil, err
	}

	req := sdk.Request{Method: http.MethodGet}
	if opts != nil {
		req.Headers = opts.Headers
	}

	if strings.TrimSpace(query) == ServerInfoQuery {
		req.Operation = "ServerInfo"
		req.URL = strings.TrimRight(inst.BaseURL, "/") + serverInfoPath
	} else {
		req.Operation = "Search"
		req.URL = SearchURL(inst.BaseURL, query)
	}

	return c.Do(ctx, inst, req)
}

// SearchURL builds the search request for a JQL expression
func SearchURL(baseURL, jql string) string {
	return fmt.Sprintf("%s%s?jql=%s&maxResults=%d",
		strings.TrimRight(baseURL, "/"), searchPath, url.QueryEscape(jql), SearchMaxResults)
}

var (
	projectClause = regexp.MustCompile(`(?i)\bproject\s*(=|!=|in\b|not\s+in\b)`)
	orderByClause = regexp.MustCompile(`(?i)\border\s+by\b`)
)

// ValidateQuery lints JQL. Findings are advisory.
func (c *Connector) ValidateQuery(_ base.Instance, query string) ([]string, []string) {
	warnings, suggestions := []string{}, []string{}

	q := strings.TrimSpace(query)
	if q == ServerInfoQuery {
		return warnings, suggestions
	}
	if q == "" {
		warnings = append(warnings, "JQL is empty; the search will return every visible issue")
		return warnings, suggestions
	}

	if !projectClause.MatchString(q) {
		warnings = append(warnings, "JQL has no project filter; the search spans every project")
		suggestions = append(suggestions, "Add a project clause, e.g. project = SEC AND ...")
	}
	if !orderByClause.MatchString(q) {
		suggestions = append(suggestions, "Add ORDER BY (e.g. ORDER BY created DESC) for stable paging")
	}
	if len(q) > MaxJQLLength {
		warnings = append(warnings, fmt.Sprintf("JQL is %d characters long; queries over %d characters are slow to evaluate", len(q), MaxJQLLength))
		suggestions = append(suggestions, "Move repeated conditions into a saved Jira filter and reference it with filter = <id>")
	}

	return warnings, suggestions
}
