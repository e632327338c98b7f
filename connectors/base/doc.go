// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package base defines the plugin contract shared by every OpsBridge connector.

# Plugin Contract

A Plugin fronts one external system type (ticketing, firewall, SIEM,
monitoring, search, generic REST). It owns a Config holding any number of
named Instances, a compiled catalog of QueryDefinitions whose first entry is
the health probe, and ExecuteQuery, which performs exactly one upstream call:

	received -> instance resolved (ErrNotFound)
	         -> active check (ErrInactive, no network call)
	         -> transport options built
	         -> single request
	         -> Result, or *UpstreamError{StatusCode, Body}

Nothing on this path retries.

# Instances and authentication

Instance.Auth is a closed sum type so that an instance always carries one of
NoAuth, BasicAuth, BearerAuth or APIKeyAuth. On the wire the union keeps
the authType/authConfig pair:

	{
	  "id": "jira-production-1717000000000",
	  "name": "Production",
	  "baseUrl": "https://jira.example.com",
	  "authType": "basic",
	  "authConfig": {"username": "svc", "password": "secret"},
	  "isActive": true,
	  "tags": ["prod"],
	  "sslConfig": {"rejectUnauthorized": true, "timeout": 15000}
	}

# Configuration merge

Config.MergeFrom overlays a persisted document on compiled defaults. Present
top-level keys win; a present instances array replaces the compiled array
entirely.

# Errors

ErrNotFound, ErrInactive, ErrConflict, ErrInvalid and ErrRateLimited are
sentinels to test with errors.Is. UpstreamError carries the status code and a
body snippet truncated to MaxErrorBodyLength characters.
*/
package base
