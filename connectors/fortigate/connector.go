// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package fortigate connects to FortiGate firewalls through the FortiOS REST
// API. Queries are paths under /api/v2/.
package fortigate

import (
	"net/url"
	"strings"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/config"
	rest "opsbridge/platform/connectors/http"
	"opsbridge/platform/connectors/sdk"
)

// SystemName is the registry key of the FortiGate connector
const SystemName = "fortigate"

// APIRoot prefixes every FortiOS REST path
const APIRoot = "/api/v2/"

// DefaultQueries is the FortiGate catalog. System status is the health probe.
var DefaultQueries = []base.QueryDefinition{
	{ID: "system-status", Method: "GET", Path: APIRoot + "monitor/system/status", Description: "Firmware version, serial and hostname"},
	{ID: "system-resources", Method: "GET", Path: APIRoot + "monitor/system/resource/usage", Description: "CPU, memory and session usage"},
	{ID: "interfaces", Method: "GET", Path: APIRoot + "monitor/system/interface", Description: "Interface link state and counters"},
	{ID: "firewall-policies", Method: "GET", Path: APIRoot + "cmdb/firewall/policy", Description: "Configured firewall policies"},
	{ID: "vpn-tunnels", Method: "GET", Path: APIRoot + "monitor/vpn/ipsec", Description: "IPsec tunnel status"},
	{ID: "ha-status", Method: "GET", Path: APIRoot + "monitor/system/ha-peer", Description: "High availability peers"},
}

// Connector is a generic-REST connector with FortiOS specific validation
type Connector struct {
	*rest.Connector
}

// New creates the FortiGate connector with cfg as compiled defaults
func New(cfg base.Config) *Connector {
	return &Connector{
		Connector: rest.NewConnector(sdk.PluginInfo{
			SystemName:     SystemName,
			DisplayName:    "FortiGate",
			Category:       "firewall",
			DefaultQueries: DefaultQueries,
			Config:         cfg,
		}),
	}
}

// DefaultConfig seeds the Default instance from FORTIGATE_URL,
// FORTIGATE_API_KEY and FORTIGATE_VERIFY_SSL
func DefaultConfig() base.Config {
	return config.EnvInstance{
		Plugin:       SystemName,
		URLVar:       "FORTIGATE_URL",
		AuthType:     base.AuthBearer,
		TokenVar:     "FORTIGATE_API_KEY",
		VerifySSLVar: "FORTIGATE_VERIFY_SSL",
	}.Config()
}

// ValidateQuery adds FortiOS checks on top of the generic path checks
func (c *Connector) ValidateQuery(inst base.Instance, query string) ([]string, []string) {
	warnings, suggestions := rest.ValidatePath(inst, query)

	q := strings.TrimSpace(query)
	if q == "" || rest.IsAbsoluteURL(q) {
		return warnings, suggestions
	}

	path, rawQuery := q, ""
	if idx := strings.Index(q, "?"); idx >= 0 {
		path, rawQuery = q[:idx], q[idx+1:]
	}
	path = "/" + strings.TrimLeft(path, "/")

	if !strings.HasPrefix(path, APIRoot) {
		warnings = append(warnings, "Path is outside "+APIRoot+"; FortiOS serves its REST API there")
		suggestions = append(suggestions, "Prefix the path with "+APIRoot+" (e.g. "+APIRoot+"monitor/system/status)")
	}

	if strings.Contains(path, "/cmdb/") {
		warnings = append(warnings, "cmdb endpoints hold firewall configuration; POST, PUT and DELETE change the running config")
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		warnings = append(warnings, "Query string could not be parsed")
	} else if values.Get("vdom") == "" {
		suggestions = append(suggestions, "Add ?vdom=<name> to scope the request to one virtual domain")
	}

	return warnings, suggestions
}
