// Package validation checks admin form input and request structs with
// go-playground/validator and reports failures as field → message maps.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/galeriaarte/galeria-server/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields by their json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a VALIDATION domain error whose
// details map each failing field to a message.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Var reports whether value satisfies tag.
func (v *Validator) Var(value any, tag string) bool {
	return v.v.Var(value, tag) == nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("Datos inválidos", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Es obligatorio"
	case "min":
		return "Debe tener al menos " + e.Param() + " caracteres"
	case "max":
		return "No debe superar " + e.Param() + " caracteres"
	case "uuid", "uuid4":
		return "Debe ser un identificador válido"
	case "hexcolor":
		return "Debe ser un color hexadecimal válido"
	case "oneof":
		return "Debe ser uno de: " + e.Param()
	case "gte":
		return "Debe ser mayor o igual que " + e.Param()
	case "lte":
		return "Debe ser menor o igual que " + e.Param()
	case "gt":
		return "Debe ser mayor que " + e.Param()
	case "lt":
		return "Debe ser menor que " + e.Param()
	case "url":
		return "Debe ser una URL válida"
	default:
		return "No es válido"
	}
}
