package errors

import "fmt"

// NewSecurityError reports a resolved path escaping its sandboxed root.
func NewSecurityError(path, root string) *BuildError {
	return &BuildError{
		Category: CategorySecurity,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("path %q escapes root %q", path, root),
		Context:  ContextFields{"path": path, "root": root},
	}
}

// NewNotFoundError reports a missing include, layout, or asset target.
func NewNotFoundError(path string, cause error) *BuildError {
	return &BuildError{
		Category: CategoryNotFound,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("file not found: %s", path),
		Cause:    cause,
		Context:  ContextFields{"path": path},
	}
}

// NewCircularDependencyError reports a path already on the active
// resolution stack.
func NewCircularDependencyError(path string) *BuildError {
	return &BuildError{
		Category: CategoryCircular,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("circular dependency: %s", path),
		Context:  ContextFields{"path": path},
	}
}

// NewDepthExceededError reports include recursion past the fixed limit.
func NewDepthExceededError(path string, limit int) *BuildError {
	return &BuildError{
		Category: CategoryDepth,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("include depth limit (%d) exceeded at %s", limit, path),
		Context:  ContextFields{"path": path, "limit": limit},
	}
}

// NewMalformedDirectiveError reports an include directive that could
// not be parsed.
func NewMalformedDirectiveError(raw string) *BuildError {
	return &BuildError{
		Category: CategoryDirective,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("malformed include directive: %s", raw),
		Context:  ContextFields{"directive": raw},
	}
}

// NewConfigError creates a fatal configuration error.
func NewConfigError(msg string, cause error) *BuildError {
	return &BuildError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  msg,
		Cause:    cause,
	}
}

// WrapError wraps an underlying error with category classification.
func WrapError(err error, cat ErrorCategory, msg string) *BuildError {
	return &BuildError{
		Category: cat,
		Severity: SeverityError,
		Message:  msg,
		Cause:    err,
	}
}
