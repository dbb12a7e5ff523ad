package httpapi

import (
	"encoding/json"
	"net/http"
)

// messageResponse is the common envelope of the auth endpoints.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type errorsResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondMessage(w http.ResponseWriter, status int, success bool, msg string) {
	respondJSON(w, status, messageResponse{Success: success, Message: msg})
}

// unauthorizedMessage is the one body every authentication failure gets, so
// callers cannot tell which check failed.
const unauthorizedMessage = "Invalid credentials."

func respondUnauthorized(w http.ResponseWriter) {
	respondMessage(w, http.StatusUnauthorized, false, unauthorizedMessage)
}
