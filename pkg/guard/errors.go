package guard

import (
	"fmt"
	"net/http"

	"github.com/dd0wney/cluso-shop/pkg/validation"
)

// HTTPError is a deliberate client-facing rejection returned by callbacks.
type HTTPError struct {
	Status  int
	Message string
	Errors  validation.FieldErrors
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Errorf builds an HTTPError with a formatted message.
func Errorf(status int, format string, args ...any) *HTTPError {
	return &HTTPError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(msg string) *HTTPError { return &HTTPError{Status: http.StatusBadRequest, Message: msg} }
func NotFound(msg string) *HTTPError   { return &HTTPError{Status: http.StatusNotFound, Message: msg} }
func Forbidden(msg string) *HTTPError  { return &HTTPError{Status: http.StatusForbidden, Message: msg} }

// Messages of the pipeline stages.
const (
	MsgNotAuthenticated = "No autenticado"
	MsgInvalidToken     = "Token inválido o expirado"
	MsgForbidden        = "No tenés permisos para acceder a este recurso"
	MsgContentType      = "Content-Type debe ser application/json"
	MsgBodyTooLarge     = "Body demasiado grande"
	MsgSuspiciousInput  = "Input sospechoso detectado"
	MsgInvalidJSON      = "JSON inválido"
	MsgInvalidData      = "Datos inválidos"
	MsgUnreadableBody   = "Error procesando la solicitud"
	MsgInternalError    = "Error interno del servidor"
)
