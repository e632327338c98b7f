// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"opsbridge/platform/integrations"
)

func (h *Handler) createInstance(w http.ResponseWriter, r *http.Request) {
	var in integrations.InstanceInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	inst, err := h.svc.CreateInstance(mux.Vars(r)["plugin"], in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, integrations.RedactInstance(inst))
}

func (h *Handler) updateInstance(w http.ResponseWriter, r *http.Request) {
	var in integrations.InstanceInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, err)
		return
	}

	vars := mux.Vars(r)
	inst, err := h.svc.UpdateInstance(vars["plugin"], vars["id"], in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, integrations.RedactInstance(inst))
}

func (h *Handler) toggleInstance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	inst, err := h.svc.ToggleInstance(vars["plugin"], vars["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, integrations.RedactInstance(inst))
}

func (h *Handler) deleteInstance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	report, err := h.svc.DeleteInstance(r.Context(), vars["plugin"], vars["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}
