package models

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	result := &ModelList{
		Object: "list",
	}

	for _, m := range h.Models() {
		result.Models = append(result.Models, Model{
			Object: "model",

			ID:      m.ID,
			OwnedBy: "jina",
		})
	}

	writeJson(w, result)
}

func (h *Handler) handleModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.Model(chi.URLParam(r, "id"))

	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJson(w, &Model{
		Object: "model",

		ID:      m.ID,
		OwnedBy: "jina",
	})
}
