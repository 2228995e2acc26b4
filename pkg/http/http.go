package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// HandleFileServer returns a handler that serves the viewer's static files
func HandleFileServer(fs http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Module scripts are rejected by browsers without an explicit type.
		switch {
		case strings.HasSuffix(path, ".js"), strings.HasSuffix(path, ".mjs"):
			w.Header().Set("Content-Type", "application/javascript")
		case strings.HasSuffix(path, ".wasm"):
			w.Header().Set("Content-Type", "application/wasm")
		case strings.HasSuffix(path, ".css"):
			w.Header().Set("Content-Type", "text/css")
		case strings.HasSuffix(path, ".html"):
			w.Header().Set("Content-Type", "text/html")
		}

		fs.ServeHTTP(w, r)
	}
}

// WriteJSON writes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// WriteError writes {error, details?} with the given status.
func WriteError(w http.ResponseWriter, status int, message string, details ...string) {
	WriteJSON(w, status, ErrorBody{Error: message, Details: details})
}
