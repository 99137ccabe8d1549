package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("imageurl", validateImageURL); err != nil {
		panic(err)
	}
}

// validateImageURL accepts empty values, site-relative paths and http(s) URLs.
func validateImageURL(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" ||
		strings.HasPrefix(v, "/") ||
		strings.HasPrefix(v, "http://") ||
		strings.HasPrefix(v, "https://")
}

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

// Add appends msg to field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Error implements error with a stable, sorted rendering.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(fe[k], ", ")))
	}
	return strings.Join(parts, "; ")
}

// Normalizer is implemented by requests that clean their fields once validated.
type Normalizer interface {
	Normalize()
}

// Schema decodes a JSON object and validates it. Validation failures are
// returned as FieldErrors.
type Schema interface {
	Decode(data []byte) (any, error)
}

type structSchema[T any] struct{}

// For returns a Schema that decodes into *T using its validate tags.
func For[T any]() Schema {
	return structSchema[T]{}
}

func (structSchema[T]) Decode(data []byte) (any, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return nil, FieldErrors{field: {"Tipo de dato inválido"}}
		}
		return nil, FieldErrors{"body": {"JSON inválido"}}
	}

	if fe := Struct(v); fe != nil {
		return nil, fe
	}

	if n, ok := any(v).(Normalizer); ok {
		n.Normalize()
	}
	return v, nil
}

// Struct validates v and returns nil or the per-field messages.
func Struct(v any) FieldErrors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return FieldErrors{"body": {err.Error()}}
	}

	fe := FieldErrors{}
	for _, e := range validationErrs {
		fe.Add(e.Field(), message(e))
	}
	return fe
}

// Var validates a single value against tag.
func Var(value any, tag string) bool {
	return validate.Var(value, tag) == nil
}

// message converts a validator error to a user-facing message.
func message(e validator.FieldError) string {
	param := e.Param()
	isString := e.Kind() == reflect.String

	switch e.Tag() {
	case "required":
		return "Campo requerido"
	case "email":
		return "Email inválido"
	case "min":
		if isString {
			return fmt.Sprintf("Debe tener al menos %s caracteres", param)
		}
		return fmt.Sprintf("Debe ser mayor o igual a %s", param)
	case "max":
		if isString {
			return fmt.Sprintf("No puede superar %s caracteres", param)
		}
		return fmt.Sprintf("Debe ser menor o igual a %s", param)
	case "gt":
		return fmt.Sprintf("Debe ser mayor a %s", param)
	case "oneof":
		return "Valor inválido, opciones: " + strings.ReplaceAll(param, " ", ", ")
	case "imageurl":
		return "URL de imagen inválida"
	default:
		return fmt.Sprintf("Valor inválido (%s)", e.Tag())
	}
}
