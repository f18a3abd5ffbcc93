package handlers

import (
	"encoding/json"
	"net/http"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error    string      `json:"error"`
	Kind     string      `json:"kind,omitempty"`
	Warnings interface{} `json:"warnings,omitempty"`
}
