// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package logger provides structured JSON logging for OpsBridge components.

Each entry is a single JSON line carrying the timestamp, level, component,
deployment instance, container, optional request ID, message and fields:

	log := logger.New("integrations")
	log.Info(requestID, "query executed", map[string]interface{}{
	    "plugin":   "jira",
	    "instance": "jira-production-1717000000000",
	})

Entries below LOG_LEVEL (DEBUG, INFO, WARN, ERROR; default INFO) are
dropped. Tests can redirect output with WithOutput or silence it with Discard.

Logger instances are safe for concurrent use.
*/
package logger
