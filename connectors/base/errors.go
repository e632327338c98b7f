// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an unknown plugin, instance, catalog query or record
	ErrNotFound = errors.New("not found")
	// ErrInactive marks an instance with isActive=false
	ErrInactive = errors.New("instance is inactive")
	// ErrConflict marks a uniqueness violation on create
	ErrConflict = errors.New("conflict")
	// ErrInvalid marks malformed input
	ErrInvalid = errors.New("invalid input")
	// ErrRateLimited marks an exhausted per-plugin request budget
	ErrRateLimited = errors.New("rate limit exceeded")
)

// MaxErrorBodyLength bounds the upstream body snippet carried by UpstreamError
const MaxErrorBodyLength = 200

// PluginError represents errors specific to plugin operations
type PluginError struct {
	Plugin    string
	Operation string
	Message   string
	Cause     error
}

func (e *PluginError) Error() string {
	if e.Cause != nil {
		return e.Plugin + "." + e.Operation + ": " + e.Message + " (cause: " + e.Cause.Error() + ")"
	}
	return e.Plugin + "." + e.Operation + ": " + e.Message
}

func (e *PluginError) Unwrap() error {
	return e.Cause
}

// NewPluginError creates a new PluginError
func NewPluginError(plugin, operation, message string, cause error) *PluginError {
	return &PluginError{
		Plugin:    plugin,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NotFoundError returns an ErrNotFound-wrapping error naming the missing thing
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%s '%s' %w", kind, id, ErrNotFound)
}

// InactiveError returns an ErrInactive-wrapping error naming the instance
func InactiveError(plugin, instanceID string) error {
	return fmt.Errorf("%s instance '%s': %w", plugin, instanceID, ErrInactive)
}

// UpstreamError is a non-2xx response from an external system
type UpstreamError struct {
	StatusCode int
	Body       string
}

// NewUpstreamError truncates body to MaxErrorBodyLength characters
func NewUpstreamError(status int, body string) *UpstreamError {
	return &UpstreamError{StatusCode: status, Body: Truncate(body, MaxErrorBodyLength)}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// PersistenceError is a failure to write plugin configuration
type PersistenceError struct {
	Plugin string
	Cause  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist config for %s: %v", e.Plugin, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Truncate cuts s to max runes, appending "..." when shortened
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
