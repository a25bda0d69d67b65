package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

var Module = fx.Module("validation",
	fx.Provide(New),
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors is a validation failure carrying per-field detail.
// errors.Is(err, apperror.ErrValidation) holds.
type Errors struct {
	Fields []FieldError
}

func (e *Errors) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+":"+f.Code)
	}
	return "validation error: " + strings.Join(parts, ", ")
}

func (e *Errors) Is(target error) bool {
	return target == apperror.ErrValidation
}

// New returns a validator that reports json field names.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates req and converts failures into *Errors.
func Struct(v *validator.Validate, req any) error {
	if v == nil {
		v = New()
	}
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Errors{Fields: []FieldError{{Field: "request", Code: "invalid_request", Message: "invalid request"}}}
	}
	out := &Errors{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "e164":
		return "must be an E.164 phone number"
	default:
		return "invalid value"
	}
}

// Field builds a single-field validation error.
func Field(field, code, msg string) error {
	return &Errors{Fields: []FieldError{{Field: field, Code: code, Message: msg}}}
}
