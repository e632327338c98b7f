// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/transport"
)

// MaxResponseSize bounds how much of an upstream body is read (10MB)
const MaxResponseSize = 10 * 1024 * 1024

// Request describes one upstream call
type Request struct {
	Operation string
	Method    string
	URL       string
	Body      interface{}
	Headers   map[string]string
}

// Do performs exactly one HTTP call against inst. Non-2xx responses become
// *base.UpstreamError; transport failures keep their original message so the
// caller can classify them.
func (p *BasePlugin) Do(ctx context.Context, inst base.Instance, r Request) (*base.Result, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	extra := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		extra[k] = v
	}

	body, err := encodeBody(r.Body)
	if err != nil {
		return nil, base.NewPluginError(p.systemName, r.Operation, "failed to encode body", err)
	}
	if body != nil {
		if _, ok := extra["Content-Type"]; !ok {
			extra["Content-Type"] = "application/json"
		}
	}

	opts := transport.BuildOptions(inst, transport.BuildAuthHeaders(inst, extra))
	client := p.factory()(opts)

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, base.NewPluginError(p.systemName, r.Operation, "failed to create request", err)
	}
	opts.Apply(req)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		p.Logger().Warn("", "upstream request failed", map[string]interface{}{
			"instance": inst.ID,
			"method":   method,
			"url":      r.URL,
			"error":    err.Error(),
		})
		return nil, base.NewPluginError(p.systemName, r.Operation, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, base.NewPluginError(p.systemName, r.Operation, "failed to read response", err)
	}
	if len(raw) > MaxResponseSize {
		return nil, base.NewPluginError(p.systemName, r.Operation,
			fmt.Sprintf("response size exceeds limit of %d bytes", MaxResponseSize), nil)
	}

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, base.NewPluginError(p.systemName, r.Operation, "upstream error",
			base.NewUpstreamError(resp.StatusCode, string(raw)))
	}

	contentType := resp.Header.Get("Content-Type")
	p.Logger().Debug("", "upstream request completed", map[string]interface{}{
		"instance":    inst.ID,
		"method":      method,
		"status":      resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
	})

	return &base.Result{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Data:        ParseBody(contentType, raw),
		Duration:    duration,
	}, nil
}

// ParseBody decodes JSON when the content type says so, and falls back to
// the raw text otherwise (including malformed JSON).
func ParseBody(contentType string, raw []byte) interface{} {
	if strings.Contains(strings.ToLower(contentType), "json") && len(bytes.TrimSpace(raw)) > 0 {
		var v interface{}
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

func encodeBody(body interface{}) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		if b == "" {
			return nil, nil
		}
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(encoded), nil
	}
}

// StubResult is the informational payload returned by placeholder connectors
// in place of an upstream call.
func (p *BasePlugin) StubResult(inst base.Instance, query, method string) *base.Result {
	if method == "" {
		method = http.MethodGet
	}
	return &base.Result{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Data: map[string]interface{}{
			"stub":     true,
			"system":   p.systemName,
			"instance": inst.Name,
			"baseUrl":  inst.BaseURL,
			"query":    query,
			"method":   strings.ToUpper(method),
			"message": fmt.Sprintf("%s connector is a placeholder; no request was sent to %s",
				p.displayName, inst.BaseURL),
		},
	}
}
