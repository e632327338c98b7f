// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

/*
Package api maps the plugin REST surface onto the integrations facade.

All routes are mounted under a prefix (normally /api/plugins):

	GET    /                                        registered plugins
	GET    /available                               plugins with an active instance
	GET    /instances                               flattened instance list
	GET    /types                                   system type catalog
	GET    /health                                  health sweep
	GET    /saved-queries                           caller's saved queries
	POST   /saved-queries/{id}/execute              replay a saved query
	DELETE /saved-queries/{id}                      delete a saved query
	GET    /widgets                                 caller's widgets
	POST   /widgets                                 create a widget
	POST   /widgets/{id}/execute                    replay a widget
	DELETE /widgets/{id}                            delete a widget
	POST   /instances/{plugin}                      create an instance
	PUT    /instances/{plugin}/{id}                 update an instance
	POST   /instances/{plugin}/{id}/toggle          flip isActive
	DELETE /instances/{plugin}/{id}                 delete an instance
	GET    /{plugin}/instances                      instances of one plugin
	GET    /{plugin}/queries                        catalog of one plugin
	POST   /{plugin}/instances/{id}/test-connection health probe
	POST   /{plugin}/instances/{id}/validate-query  advisory lint
	POST   /{plugin}/instances/{id}/query           ad-hoc execution
	POST   /{plugin}/instances/{id}/default-query/{qid}

Instance listings never expose secrets. The caller identity for saved
queries and widgets is read from the X-User-ID header.
*/
package api
