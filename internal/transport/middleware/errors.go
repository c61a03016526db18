package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the error shape written by the REST handlers.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Code: status, Message: message}) //nolint:errcheck
}
