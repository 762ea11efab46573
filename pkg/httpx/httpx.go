package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Envelope is the REST response shape shared by every policy command.
func Envelope(isError bool, message string, data any) map[string]any {
	resp := map[string]any{
		"error":   isError,
		"message": message,
	}
	if data != nil {
		resp["data"] = data
	}
	return resp
}
