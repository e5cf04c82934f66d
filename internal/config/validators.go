package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/idelchi/gogen/pkg/validator"

	"github.com/idelchi/idxcrypt/internal/digest"
)

// register adds the custom rules and reports fields by their `label` tag.
func register(validator *validator.Validator) error {
	if err := validator.RegisterValidationAndTranslation(
		"exclusive",
		validateExclusive,
		"{0} is mutually exclusive with {1}",
	); err != nil {
		return fmt.Errorf("registering exclusive: %w", err)
	}

	if err := validator.RegisterValidationAndTranslation(
		"hashname",
		validateHashName,
		"{0} must be one of "+strings.Join(digest.Names(), ", "),
	); err != nil {
		return fmt.Errorf("registering hashname: %w", err)
	}

	validator.Validator().RegisterTagNameFunc(label)

	return nil
}

// label returns the `label` tag of a field, falling back to its Go name.
func label(fld reflect.StructField) string {
	const splitSize = 2

	name := strings.SplitN(fld.Tag.Get("label"), ",", splitSize)[0]
	if name == "-" || name == "" {
		return fld.Name
	}

	return name
}

// sibling finds the field of parent whose label (or Go name) is name.
func sibling(parent reflect.Value, name string) reflect.Value {
	if parent.Kind() == reflect.Pointer {
		parent = parent.Elem()
	}

	if parent.Kind() != reflect.Struct {
		return reflect.Value{}
	}

	for i := range parent.NumField() {
		if label(parent.Type().Field(i)) == name {
			return parent.Field(i)
		}
	}

	return parent.FieldByName(name)
}

// validateExclusive checks if two fields are mutually exclusive.
// Returns false if both fields have non-empty values.
func validateExclusive(fl validator.FieldLevel) bool {
	field := fl.Field()
	otherField := sibling(fl.Parent(), fl.Param())

	if !field.IsValid() || !otherField.IsValid() {
		return true
	}

	if field.Kind() == reflect.String && otherField.Kind() == reflect.String {
		return field.String() == "" || otherField.String() == ""
	}

	return true
}

// validateHashName accepts any spelling digest.Parse understands.
func validateHashName(fl validator.FieldLevel) bool {
	_, err := digest.Parse(fl.Field().String())

	return err == nil
}
