package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kwhite/taskboard/internal/api/dto"
	"github.com/kwhite/taskboard/internal/authz"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDenial maps authorization failures to the transport. Both bodies are
// uniform: the caller learns whether it was missing a credential or lacking
// scope, never which rule tripped.
func writeDenial(w http.ResponseWriter, err error) {
	if errors.Is(err, authz.ErrUnauthenticated) {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Unauthorized"})
}
