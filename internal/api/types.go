package api

import (
	"encoding/json"
	"net/http"
)

type BroadcastRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Topic string `json:"topic,omitempty"`
}

type BroadcastResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
