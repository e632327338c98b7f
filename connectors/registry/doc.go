// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package registry maps external system names to their connectors.

A Registry is an ordinary value built by the composition root; there is no
package-level instance:

	store := config.NewFileStore(dir)
	reg := registry.New(store)
	reg.Register(jira.New(jira.DefaultConfig()))

Register merges the persisted <name>.json document over the connector's
compiled defaults. A persisted "instances" array replaces the compiled one
outright; other top-level keys override individually. Missing and corrupt
files both fall back to the compiled defaults, but corrupt ones are logged at
ERROR and counted in opsbridge_config_load_failures_total.

UpdateConfig replaces a plugin's configuration in memory and on disk.
Concurrent edits are last-writer-wins unless the registry is built with
WithStrictMutation, in which case Mutate and UpdateConfig are serialized per
plugin.
*/
package registry
