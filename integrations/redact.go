// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package integrations

import (
	"opsbridge/platform/connectors/base"
	"opsbridge/platform/connectors/registry"
)

// RedactedValue replaces secrets in API responses. Sending it back on update
// keeps the stored secret.
const RedactedValue = "********"

// RedactInstance returns a copy of inst with passwords, tokens and keys masked
func RedactInstance(inst base.Instance) base.Instance {
	out := inst.Clone()
	switch a := out.Auth.(type) {
	case base.BasicAuth:
		a.Password = mask(a.Password)
		out.Auth = a
	case base.BearerAuth:
		a.Token = mask(a.Token)
		out.Auth = a
	case base.APIKeyAuth:
		a.Key = mask(a.Key)
		out.Auth = a
	}
	return out
}

// RedactInstances masks every instance in the list
func RedactInstances(instances []base.Instance) []base.Instance {
	out := make([]base.Instance, len(instances))
	for i, inst := range instances {
		out[i] = RedactInstance(inst)
	}
	return out
}

// RedactPluginInstances masks a flattened listing
func RedactPluginInstances(list []registry.PluginInstance) []registry.PluginInstance {
	out := make([]registry.PluginInstance, len(list))
	for i, pi := range list {
		out[i] = registry.PluginInstance{PluginName: pi.PluginName, Instance: RedactInstance(pi.Instance)}
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return RedactedValue
}

// keepRedactedSecrets copies stored secrets into next wherever next carries
// the redaction placeholder and the auth scheme is unchanged
func keepRedactedSecrets(current, next base.AuthConfig) base.AuthConfig {
	switch n := next.(type) {
	case base.BasicAuth:
		if c, ok := current.(base.BasicAuth); ok && n.Password == RedactedValue {
			n.Password = c.Password
		}
		return n
	case base.BearerAuth:
		if c, ok := current.(base.BearerAuth); ok && n.Token == RedactedValue {
			n.Token = c.Token
		}
		return n
	case base.APIKeyAuth:
		if c, ok := current.(base.APIKeyAuth); ok && n.Key == RedactedValue {
			n.Key = c.Key
		}
		return n
	}
	return next
}
