package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

// ConfigurationError is returned when a rule or request carries invalid settings
type ConfigurationError struct {
	Field   string
	Message string
}

func NewConfigurationError(field, msg string) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Message: msg,
	}
}

// NewConfigurationErrorf creates a ConfigurationError with a formatted message
func NewConfigurationErrorf(field, format string, args ...any) *ConfigurationError {
	return NewConfigurationError(field, fmt.Sprintf(format, args...))
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Message)
	}
	return fmt.Sprintf("invalid configuration for '%s': %s", e.Field, e.Message)
}

// NotFoundError is returned when an operation references an unknown id
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// IsNotFound reports whether err is or wraps a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// ToHTTPError maps domain errors onto HTTP errors. Unknown errors pass through unchanged.
func ToHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return httperror.NewHTTPError(http.StatusNotFound, notFound.Error())
	}

	var config *ConfigurationError
	if errors.As(err, &config) {
		return httperror.NewHTTPError(http.StatusBadRequest, config.Error())
	}

	return err
}
