package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/inkwell-ai/inkwell-engine/pkg/apperrors"
)

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WritePipelineError writes a failure response carrying the pipeline error
// code, its message, and any caller-facing context, with the status the
// code maps to.
func WritePipelineError(w http.ResponseWriter, err error) error {
	pe := apperrors.AsPipelineError(err)

	body := map[string]any{
		"error":     pe.Message,
		"errorCode": string(pe.Code),
	}
	for k, v := range pe.Context {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(pe.Code.HTTPStatus())
	return json.NewEncoder(w).Encode(body)
}
