package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mlarcher/pageproof/internal/stylesheet"
)

// handlePreviewCSS composes a stylesheet without rendering anything, so
// callers can inspect the CSS a parameter set would produce.
func (s *Server) handlePreviewCSS(w http.ResponseWriter, r *http.Request) {
	var params layoutParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := params.Validate(); err != nil {
		jsonError(w, "invalid params: "+err.Error(), http.StatusBadRequest)
		return
	}

	sheet, err := s.composer.Compose(params.Template, params.overrides())
	if err != nil {
		var unknownSpec *stylesheet.UnknownSpecializationError
		var unknownOv *stylesheet.UnknownOverrideError
		var notOv *stylesheet.ModuleNotOverridableError
		if errors.As(err, &unknownSpec) || errors.As(err, &unknownOv) || errors.As(err, &notOv) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		jsonError(w, "composition failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sheet)
}

// handleListTemplates returns the registered specializations.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"templates": stylesheet.Specializations(),
	})
}
