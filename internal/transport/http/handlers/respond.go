package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/projectdesk/pkg/validator"
)

type errorBody struct {
	StatusCode int                        `json:"statusCode"`
	Message    string                     `json:"message"`
	Error      string                     `json:"error"`
	Fields     validator.ValidationErrors `json:"fields,omitempty"`
}

// dataEnvelope wraps every successful collection/resource read.
type dataEnvelope struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation failed",
		Error:      http.StatusText(http.StatusBadRequest),
		Fields:     errs,
	})
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}
