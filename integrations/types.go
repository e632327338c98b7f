// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import (
	"time"

	"opsbridge/platform/connectors/base"
)

// Connection and sweep statuses
const (
	StatusHealthy  = "healthy"
	StatusError    = "error"
	StatusInactive = "inactive"
	StatusUnknown  = "unknown"
	StatusSuccess  = "success"
)

// ConnectionResult is the outcome of a health probe. It never carries a raw
// transport error; Message is classified.
type ConnectionResult struct {
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	ResponseTime int64     `json:"responseTime"`
	PluginName   string    `json:"pluginName"`
	InstanceID   string    `json:"instanceId"`
	InstanceName string    `json:"instanceName"`
	Timestamp    time.Time `json:"timestamp"`
}

// ValidationResult carries advisory findings. Valid is always true.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// ExecutionResult is the envelope of every query execution entry point. An
// inactive instance yields Success=true with Status "inactive" and no Data.
type ExecutionResult struct {
	Success       bool        `json:"success"`
	Status        string      `json:"status"`
	Message       string      `json:"message,omitempty"`
	Data          interface{} `json:"data,omitempty"`
	PluginName    string      `json:"pluginName"`
	InstanceID    string      `json:"instanceId"`
	InstanceName  string      `json:"instanceName"`
	Query         string      `json:"query"`
	Method        string      `json:"method"`
	ExecutionTime int64       `json:"executionTime"`
	RequestID     string      `json:"requestId"`
	QueryID       string      `json:"queryId,omitempty"`
	SavedQueryID  string      `json:"savedQueryId,omitempty"`
	WidgetID      string      `json:"widgetId,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

// SweepSummary counts sweep results by status
type SweepSummary struct {
	Total    int `json:"total"`
	Healthy  int `json:"healthy"`
	Error    int `json:"error"`
	Unknown  int `json:"unknown"`
	Inactive int `json:"inactive"`
}

// SweepResult is the probe outcome of one instance
type SweepResult struct {
	PluginName   string `json:"pluginName"`
	InstanceID   string `json:"instanceId"`
	InstanceName string `json:"instanceName"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"responseTime"`
	Message      string `json:"message,omitempty"`
}

// SweepReport aggregates a health sweep. Results follow registry order.
type SweepReport struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  int64         `json:"duration"`
	Summary   SweepSummary  `json:"summary"`
	Results   []SweepResult `json:"results"`
}

// AdHocRequest is an ad-hoc execution. A non-empty SaveAs persists the query
// as a saved query after a successful run.
type AdHocRequest struct {
	Query       string            `json:"query"`
	Method      string            `json:"method"`
	Body        interface{}       `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	SaveAs      string            `json:"saveAs,omitempty"`
	Description string            `json:"description,omitempty"`
}

// PluginSummary is one entry of the plugin listing
type PluginSummary struct {
	Name            string                 `json:"name"`
	DisplayName     string                 `json:"displayName"`
	Category        string                 `json:"category"`
	InstanceCount   int                    `json:"instanceCount"`
	ActiveInstances int                    `json:"activeInstances"`
	DefaultQueries  []base.QueryDefinition `json:"defaultQueries"`
}

// PluginType is one entry of the system type catalog
type PluginType struct {
	SystemName  string `json:"systemName"`
	DisplayName string `json:"displayName"`
	Category    string `json:"category"`
	QueryCount  int    `json:"queryCount"`
}

// DeleteReport lists records still referencing a removed instance
type DeleteReport struct {
	PluginName   string `json:"pluginName"`
	InstanceID   string `json:"instanceId"`
	SavedQueries int    `json:"orphanedSavedQueries"`
	Widgets      int    `json:"orphanedWidgets"`
}
