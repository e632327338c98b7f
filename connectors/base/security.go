// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// URLPolicy restricts the base URLs operators may assign to instances
type URLPolicy struct {
	// BlockPrivateIPs rejects hosts resolving to loopback, link-local or
	// private ranges. Off by default: most monitored systems are internal.
	BlockPrivateIPs bool
	// BlockedHosts rejects a host and all of its subdomains
	BlockedHosts []string
	// Resolve looks up host addresses; nil means net.LookupIP
	Resolve func(host string) ([]net.IP, error)
}

// ValidateBaseURL checks that raw is an absolute http(s) URL allowed by the
// policy. Failures wrap ErrInvalid.
func ValidateBaseURL(raw string, policy URLPolicy) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: baseUrl cannot be empty", ErrInvalid)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid baseUrl: %v", ErrInvalid, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: baseUrl scheme %q is not allowed; use http or https", ErrInvalid, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: baseUrl must contain a hostname", ErrInvalid)
	}

	if isHostBlocked(host, policy.BlockedHosts) {
		return fmt.Errorf("%w: host %q is blocked", ErrInvalid, host)
	}

	if policy.BlockPrivateIPs {
		resolve := policy.Resolve
		if resolve == nil {
			resolve = net.LookupIP
		}
		ips, err := resolve(host)
		if err != nil {
			return fmt.Errorf("%w: cannot resolve host %q: %v", ErrInvalid, host, err)
		}
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return fmt.Errorf("%w: host %q resolves to internal address %s", ErrInvalid, host, ip)
			}
		}
	}

	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		// 0.0.0.0/8 and 100.64.0.0/10 (carrier-grade NAT)
		if ip4[0] == 0 || (ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127) {
			return true
		}
	}
	return false
}

func isHostBlocked(host string, blocked []string) bool {
	host = strings.ToLower(host)
	for _, b := range blocked {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" && (host == b || strings.HasSuffix(host, "."+b)) {
			return true
		}
	}
	return false
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

const maxLogValueLength = 500

// SanitizeLogString escapes line breaks and strips ANSI sequences from
// caller-supplied text before it is logged, truncating long values
func SanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = ansiEscape.ReplaceAllString(s, "")
	if len(s) > maxLogValueLength {
		s = s[:maxLogValueLength] + "...[truncated]"
	}
	return s
}

var systemNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateSystemName checks that name is usable as a registry key and as a
// config file name
func ValidateSystemName(name string) error {
	if !systemNamePattern.MatchString(strings.ToLower(name)) {
		return fmt.Errorf("%w: invalid system name %q", ErrInvalid, name)
	}
	return nil
}
