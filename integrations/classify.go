// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"opsbridge/platform/connectors/base"
)

// ClassifyError turns a probe failure into an operator-facing message by
// matching well-known fragments of the error text. Unrecognized errors are
// returned verbatim.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, base.ErrRateLimited) {
		return "Rate limit reached for this plugin; try again shortly"
	}

	status := 0
	var upstream *base.UpstreamError
	if errors.As(err, &upstream) {
		status = upstream.StatusCode
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "connection refused") || strings.Contains(msg, "ECONNREFUSED"):
		return "Connection refused: the service may be down or the port is closed"
	case strings.Contains(lower, "no such host") || strings.Contains(msg, "ENOTFOUND"):
		return "Cannot resolve hostname: check the base URL"
	case hasStatus(err, status, http.StatusUnauthorized):
		return "Authentication failed: check the credentials"
	case hasStatus(err, status, http.StatusForbidden):
		return "Permission denied: the credentials lack access to this endpoint"
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return "Connection timed out: the service is slow or unreachable"
	case strings.Contains(lower, "x509") || strings.Contains(lower, "certificate"):
		return "TLS certificate verification failed: enable allowSelfSigned for self-signed certificates"
	}

	return msg
}

// hasStatus reports whether the failure carries code. Upstream errors carry it
// as a field. Transport errors embed the request URL, where digits are host or
// path text, so only other errors fall back to matching the text.
func hasStatus(err error, status, code int) bool {
	if status != 0 {
		return status == code
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return false
	}
	return strings.Contains(err.Error(), strconv.Itoa(code))
}
