package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"postplanner-hq/quota/pkg/limits/enforcement"
)

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteSuccess writes a 200 response with data in the success envelope.
func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// WriteError writes an error body with the status StatusFor(code) returns.
func WriteError(w http.ResponseWriter, message, code string) error {
	return WriteJSON(w, StatusFor(code), NewError(message, code))
}

// WriteDecline writes a limit decline: its headers, status and body.
func WriteDecline(w http.ResponseWriter, d *enforcement.Decline) error {
	d.WriteHeaders(w.Header())
	return WriteJSON(w, d.Status, d.Body())
}
