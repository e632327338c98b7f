// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package transport turns an instance's declared auth and TLS policy into the
// headers, TLS configuration and timeout of one outbound call.
package transport

import (
	"crypto/tls"
	"encoding/base64"
	"net"
	"net/http"
	"time"

	"opsbridge/platform/connectors/base"
)

// DefaultTimeout applies when an instance declares no sslConfig.timeout
const DefaultTimeout = 30 * time.Second

// Options is the assembled transport for one call
type Options struct {
	Headers   http.Header
	TLSConfig *tls.Config // nil means default certificate verification
	Timeout   time.Duration
}

// Doer is the subset of *http.Client connectors depend on
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientFactory builds the client for one call from its transport options
type ClientFactory func(opts Options) Doer

// BuildAuthHeaders always sets Accept: application/json, applies extra headers,
// and adds credentials for the instance's auth scheme. Incomplete credentials
// produce no Authorization header; the call then goes out unauthenticated.
func BuildAuthHeaders(inst base.Instance, extra map[string]string) http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	for k, v := range extra {
		h.Set(k, v)
	}

	switch auth := inst.Auth.(type) {
	case base.BasicAuth:
		if auth.Username != "" && auth.Password != "" {
			cred := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
			h.Set("Authorization", "Basic "+cred)
		}
	case base.BearerAuth:
		if auth.Token != "" {
			h.Set("Authorization", "Bearer "+auth.Token)
		}
	case base.APIKeyAuth:
		if auth.Key != "" {
			header := auth.Header
			if header == "" {
				header = "Authorization"
			}
			h.Set(header, auth.Key)
		}
	}

	return h
}

// BuildTLSConfig returns an insecure TLS config iff the instance sets
// rejectUnauthorized=false or allowSelfSigned=true; otherwise nil.
func BuildTLSConfig(inst base.Instance) *tls.Config {
	ssl := inst.SSLConfig
	if ssl == nil {
		return nil
	}
	insecure := (ssl.RejectUnauthorized != nil && !*ssl.RejectUnauthorized) ||
		(ssl.AllowSelfSigned != nil && *ssl.AllowSelfSigned)
	if !insecure {
		return nil
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: true, //nolint:gosec // operator opted out per instance
	}
}

// BuildOptions attaches the TLS config and the per-call timeout
func BuildOptions(inst base.Instance, headers http.Header) Options {
	timeout := DefaultTimeout
	if inst.SSLConfig != nil && inst.SSLConfig.Timeout > 0 {
		timeout = time.Duration(inst.SSLConfig.Timeout) * time.Millisecond
	}
	return Options{
		Headers:   headers,
		TLSConfig: BuildTLSConfig(inst),
		Timeout:   timeout,
	}
}

var (
	verifyingTransport = newTransport(nil, false)
	insecureTransport  = newTransport(BuildTLSConfig(base.Instance{
		SSLConfig: &base.SSLConfig{AllowSelfSigned: base.Bool(true)},
	}), false)
)

func newTransport(tlsConfig *tls.Config, disableKeepAlives bool) *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   disableKeepAlives,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// NewClient builds an *http.Client honoring opts. It is the default
// ClientFactory. Clients share one pooled transport per TLS policy; a custom
// TLS config gets its own transport without keep-alives.
func NewClient(opts Options) Doer {
	tr := verifyingTransport
	switch {
	case opts.TLSConfig == nil:
	case opts.TLSConfig.InsecureSkipVerify:
		tr = insecureTransport
	default:
		tr = newTransport(opts.TLSConfig, true)
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: tr,
	}
}

// Apply copies the option headers onto req
func (o Options) Apply(req *http.Request) {
	for k, vals := range o.Headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
}
