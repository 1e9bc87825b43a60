package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/idelchi/gochunk/internal/encryption"
)

// register adds the custom validators and reports fields by their flag label.
func register(validate *validator.Validate) error {
	for tag, fn := range map[string]validator.Func{
		"distinct":  validateDistinct,
		"exclusive": validateExclusive,
		"suite":     validateSuite,
	} {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("registering %s validation: %w", tag, err)
		}
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return labelFor(fld)
	})

	return nil
}

func labelFor(fld reflect.StructField) string {
	const splitSize = 2

	name := strings.SplitN(fld.Tag.Get("label"), ",", splitSize)[0]
	if name == "" || name == "-" {
		return fld.Name
	}

	return name
}

// labelOf returns the flag label of the named Config field.
func labelOf(field string) string {
	fld, ok := reflect.TypeOf(Config{}).FieldByName(field)
	if !ok {
		return field
	}

	return labelFor(fld)
}

// validateDistinct checks that two path fields do not name the same file.
// Empty values are left to the required rules.
func validateDistinct(fl validator.FieldLevel) bool {
	field := fl.Field()
	other := fl.Parent().FieldByName(fl.Param())

	if !field.IsValid() || !other.IsValid() || field.Kind() != reflect.String || other.Kind() != reflect.String {
		return true
	}

	current, against := field.String(), other.String()
	if current == "" || against == "" {
		return true
	}

	return filepath.Clean(current) != filepath.Clean(against)
}

// validateExclusive checks if two fields are mutually exclusive.
// Returns false if both fields are set.
func validateExclusive(fl validator.FieldLevel) bool {
	field := fl.Field()
	other := fl.Parent().FieldByName(fl.Param())

	if !field.IsValid() || !other.IsValid() || field.Kind() != other.Kind() {
		return true
	}

	return field.IsZero() || other.IsZero()
}

// validateSuite checks that the cipher names a supported AEAD suite.
func validateSuite(fl validator.FieldLevel) bool {
	_, err := encryption.ParseSuite(fl.Field().String())

	return err == nil
}
