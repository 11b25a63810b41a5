package api

import (
	"encoding/json"
	"net/http"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDocument writes an already encoded watch document.
func writeDocument(w http.ResponseWriter, ct doc.ContentType, body []byte) {
	w.Header().Set("Content-Type", ct.MediaType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
