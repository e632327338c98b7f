// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package servicenow provides the ServiceNow ITSM connector.
// ExecuteQuery is a placeholder; the catalog and auth shape are final.
package servicenow

import (
	"context"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	"opsbridge/platform/connectors/sdk"
)

// SystemName is the registry key of the ServiceNow connector
const SystemName = "servicenow"

// DefaultQueries is the ServiceNow Table API catalog
var DefaultQueries = []base.QueryDefinition{
	{ID: "instance-stats", Method: "GET", Path: "/api/now/table/sys_properties?sysparm_limit=1", Description: "Table API reachability"},
	{ID: "open-incidents", Method: "GET", Path: "/api/now/table/incident?sysparm_query=active=true^ORDERBYDESCopened_at", Description: "Active incidents, newest first"},
	{ID: "p1-incidents", Method: "GET", Path: "/api/now/table/incident?sysparm_query=active=true^priority=1", Description: "Active priority 1 incidents"},
	{ID: "open-changes", Method: "GET", Path: "/api/now/table/change_request?sysparm_query=active=true", Description: "Active change requests"},
}

// Connector is the ServiceNow placeholder connector
type Connector struct {
	*sdk.BasePlugin
}

// New creates the ServiceNow connector with cfg as compiled defaults
func New(cfg base.Config) *Connector {
	return &Connector{
		BasePlugin: sdk.NewBasePlugin(sdk.PluginInfo{
			SystemName:     SystemName,
			DisplayName:    "ServiceNow",
			Category:       "itsm",
			DefaultQueries: DefaultQueries,
			Config:         cfg,
		}),
	}
}

// DefaultConfig seeds the Default instance from SERVICENOW_URL with basic auth
func DefaultConfig() base.Config {
	return config.EnvInstance{
		Plugin:      SystemName,
		URLVar:      "SERVICENOW_URL",
		AuthType:    base.AuthBasic,
		UsernameVar: "SERVICENOW_USERNAME",
		PasswordVar: "SERVICENOW_PASSWORD",
	}.Config()
}

// ExecuteQuery resolves the instance and returns a placeholder result
func (c *Connector) ExecuteQuery(_ context.Context, query, method, instanceID string, _ *base.QueryOptions) (*base.Result, error) {
	inst, err := c.ResolveActive(instanceID)
	if err != nil {
		return nil, err
	}
	return c.StubResult(inst, query, method), nil
}
