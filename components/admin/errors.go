package admin

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

var (
	errMissingProjectStore  = errors.New("admin: project store not configured")
	errMissingCategoryStore = errors.New("admin: category store not configured")
	errMissingUserStore     = errors.New("admin: user store not configured")
	errMissingVariableStore = errors.New("admin: variable store not configured")
	errMissingStyleStore    = errors.New("admin: style store not configured")
	errMissingChartStore    = errors.New("admin: chart store not configured")
	errMissingSettingsStore = errors.New("admin: settings store not configured")
)

// NotFound builds a not-found error for the given resource kind and id.
func NotFound(kind, id string) error {
	return goerrors.New(fmt.Sprintf("%s %q not found", kind, id), goerrors.CategoryNotFound).
		WithTextCode("NOT_FOUND").
		WithMetadata(map[string]any{"kind": kind, "id": id})
}

// Conflict builds a conflict error (duplicates, forbidden renames).
func Conflict(message string) error {
	return goerrors.New(message, goerrors.CategoryConflict).WithTextCode("CONFLICT")
}

// Invalid builds a validation error for a single field.
func Invalid(field, message string) error {
	return goerrors.NewValidation(message, goerrors.FieldError{Field: field, Message: message})
}

// BadInput wraps a decoding failure.
func BadInput(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, message)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return goerrors.HasCategory(err, goerrors.CategoryNotFound)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return goerrors.HasCategory(err, goerrors.CategoryValidation)
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	return goerrors.HasCategory(err, goerrors.CategoryConflict)
}

// validationError converts ozzo rule failures into the shared taxonomy.
func validationError(err error, message string) error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, message)
}

// ErrorMessage returns the operator facing text for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var typed *goerrors.Error
	if goerrors.As(err, &typed) {
		if len(typed.ValidationErrors) > 0 {
			return typed.Message + ": " + typed.ValidationErrors.Error()
		}
		return typed.Message
	}
	return err.Error()
}

// ErrorCategory returns the taxonomy category of err, defaulting to internal.
func ErrorCategory(err error) goerrors.Category {
	var typed *goerrors.Error
	if goerrors.As(err, &typed) {
		return typed.Category
	}
	return goerrors.CategoryInternal
}
