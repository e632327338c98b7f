// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package config loads and persists plugin configuration.

# Config Store

FileStore keeps one pretty-printed JSON document per plugin under a
directory, named <systemName>.json:

	store := config.NewFileStore("./config/plugins")
	res := store.Load("jira")
	switch res.Status {
	case config.LoadAbsent:  // never configured
	case config.LoadCorrupt: // file exists but is unusable, see res.Err
	case config.LoadLoaded:  // res.Data holds the raw JSON object
	}

Save overwrites the file in place. It is not atomic.

# Compiled Defaults

Each connector seeds a "Default" instance from environment variables through
EnvInstance:

	JIRA_URL=https://example.atlassian.net
	JIRA_USERNAME=ops@example.com
	JIRA_API_TOKEN=...

An optional YAML seed file declares further instances. ${VAR} and
${VAR:-default} references are expanded before parsing:

	version: "1"
	plugins:
	  fortigate:
	    instances:
	      - id: fortigate-lab
	        name: Lab
	        baseUrl: ${LAB_FW_URL:-https://fw.lab.local}
	        authType: api_key
	        authConfig:
	          key: ${LAB_FW_KEY}
	        sslConfig:
	          allowSelfSigned: true
*/
package config
