// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"opsbridge/platform/connectors/base"
	"opsbridge/platform/integrations"
	"opsbridge/platform/storage"
)

func (h *Handler) listPlugins(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.ListPlugins())
}

func (h *Handler) availablePlugins(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.AvailablePlugins())
}

func (h *Handler) allInstances(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, integrations.RedactPluginInstances(h.svc.AllInstances()))
}

func (h *Handler) types(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Types())
}

// sweep never fails; individual probe failures are inside the report
func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Sweep(r.Context()))
}

func (h *Handler) pluginInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.svc.PluginInstances(mux.Vars(r)["plugin"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, integrations.RedactInstances(instances))
}

func (h *Handler) defaultQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := h.svc.DefaultQueries(mux.Vars(r)["plugin"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if queries == nil {
		queries = []base.QueryDefinition{}
	}
	h.writeJSON(w, http.StatusOK, queries)
}

func (h *Handler) testConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.svc.TestConnection(r.Context(), vars["plugin"], vars["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

type validateRequest struct {
	Query string `json:"query"`
}

func (h *Handler) validateQuery(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	vars := mux.Vars(r)
	res, err := h.svc.ValidateQuery(vars["plugin"], vars["id"], req.Query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) executeAdHoc(w http.ResponseWriter, r *http.Request) {
	var req integrations.AdHocRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	vars := mux.Vars(r)
	res, err := h.svc.ExecuteAdHoc(r.Context(), vars["plugin"], vars["id"], userID(r), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) executeDefault(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.svc.ExecuteDefault(r.Context(), vars["plugin"], vars["id"], vars["qid"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listSavedQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := h.svc.ListSavedQueries(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if queries == nil {
		queries = []storage.SavedQuery{}
	}
	h.writeJSON(w, http.StatusOK, queries)
}

func (h *Handler) executeSaved(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExecuteSaved(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) deleteSavedQuery(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSavedQuery(r.Context(), mux.Vars(r)["id"], userID(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	widgets, err := h.svc.ListWidgets(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if widgets == nil {
		widgets = []storage.Widget{}
	}
	h.writeJSON(w, http.StatusOK, widgets)
}

func (h *Handler) createWidget(w http.ResponseWriter, r *http.Request) {
	var req storage.Widget
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	widget, err := h.svc.CreateWidget(r.Context(), userID(r), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, widget)
}

func (h *Handler) executeWidget(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ExecuteWidget(r.Context(), mux.Vars(r)["id"], userID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) deleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteWidget(r.Context(), mux.Vars(r)["id"], userID(r)); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
