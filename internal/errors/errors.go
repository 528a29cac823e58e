// Package errors provides a lightweight structured error type (BuildError)
// for category-based classification of resolution and build failures.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a build error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Resolution errors; each of these maps to an inline output marker
	// at the expansion site that produced it (see the resolve package)
	CategorySecurity  ErrorCategory = "security"
	CategoryNotFound  ErrorCategory = "not_found"
	CategoryCircular  ErrorCategory = "circular"
	CategoryDepth     ErrorCategory = "depth"
	CategoryDirective ErrorCategory = "directive"

	// Build and infrastructure errors
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Fails the page (or the build)
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded output
)

// BuildError is a structured error with category, severity, and context
type BuildError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BuildError
type ContextFields map[string]any

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *BuildError) WithContext(key string, value any) *BuildError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the category's default severity
func (e *BuildError) WithSeverity(sev ErrorSeverity) *BuildError {
	e.Severity = sev
	return e
}

// CategoryOf returns the category of err when it is (or wraps) a
// BuildError, and CategoryInternal otherwise.
func CategoryOf(err error) ErrorCategory {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Category
	}
	return CategoryInternal
}

// IsCategory reports whether err is (or wraps) a BuildError of the
// given category.
func IsCategory(err error, cat ErrorCategory) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Category == cat
}
