package guard

import (
	"encoding/json"
	"net/http"

	"github.com/dd0wney/cluso-shop/pkg/logging"
	"github.com/dd0wney/cluso-shop/pkg/validation"
)

// errorEnvelope is the body of every rejection.
type errorEnvelope struct {
	Success        bool                   `json:"success"`
	Message        string                 `json:"message"`
	Errors         validation.FieldErrors `json:"errors,omitempty"`
	AllowedMethods []string               `json:"allowedMethods,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorLog("failed to encode response", logging.Error(err))
	}
}

// WriteError writes the standard rejection envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorEnvelope{Message: message})
}

// WriteFieldErrors writes a 400 with per-field details.
func WriteFieldErrors(w http.ResponseWriter, message string, fe validation.FieldErrors) {
	WriteJSON(w, http.StatusBadRequest, errorEnvelope{Message: message, Errors: fe})
}

// WriteHTTPError writes e as an envelope.
func WriteHTTPError(w http.ResponseWriter, e *HTTPError) {
	WriteJSON(w, e.Status, errorEnvelope{Message: e.Message, Errors: e.Errors})
}

// trackingWriter remembers whether a response was started.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

func (t *trackingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}
