// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package sdk provides the building blocks shared by OpsBridge connectors.

Connectors embed *BasePlugin, which owns the plugin configuration and
implements every base.Plugin method except ExecuteQuery:

	type Connector struct {
	    *sdk.BasePlugin
	}

	func (c *Connector) ExecuteQuery(ctx context.Context, query, method, instanceID string, opts *base.QueryOptions) (*base.Result, error) {
	    inst, err := c.ResolveActive(instanceID)
	    if err != nil {
	        return nil, err // ErrNotFound or ErrInactive, no network call
	    }
	    return c.Do(ctx, inst, sdk.Request{Operation: "ExecuteQuery", Method: method, URL: inst.BaseURL + query})
	}

Do builds headers, TLS settings and the timeout through the transport
package, sends exactly one request and classifies the response. Placeholder
connectors return StubResult instead.

MockPlugin is a test double with call recording.
*/
package sdk
