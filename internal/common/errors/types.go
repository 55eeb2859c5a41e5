// Package errors defines the structured application error used across the
// assignment service. Error types map to transport-level outcomes: validation
// errors reject requests before any state change, not-found errors surface to
// the caller without retry, internal errors wrap infrastructure failures.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	// ErrTypeValidation marks input rejected before any state change
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeNotFound marks a referenced rule, request or provider that does not exist
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeConflict marks a uniqueness violation such as a duplicate rule name
	ErrTypeConflict ErrorType = "conflict"
	// ErrTypeConnection marks a failure reaching an external collaborator
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeConfig marks invalid service configuration
	ErrTypeConfig ErrorType = "config"
	// ErrTypeInternal marks unexpected infrastructure failures
	ErrTypeInternal ErrorType = "internal"
	// ErrTypeTimeout marks an operation that exceeded its deadline
	ErrTypeTimeout ErrorType = "timeout"
	// ErrTypeRateLimit marks a caller that exceeded its request budget
	ErrTypeRateLimit ErrorType = "rate_limit"
)

// AppError is a structured application error with an optional cause and
// free-form context.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key-value pair to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ValidationError creates a validation error.
func ValidationError(msg string) *AppError {
	return &AppError{Type: ErrTypeValidation, Message: msg}
}

// NotFoundError creates a not-found error for the named resource.
func NotFoundError(resource string) *AppError {
	return &AppError{Type: ErrTypeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// ConflictError creates a conflict error.
func ConflictError(msg string) *AppError {
	return &AppError{Type: ErrTypeConflict, Message: msg}
}

// ConnectionError creates a connection error.
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeConnection, Message: msg, Cause: cause}
}

// ConfigError creates a configuration error.
func ConfigError(msg string) *AppError {
	return &AppError{Type: ErrTypeConfig, Message: msg}
}

// InternalError creates an internal error wrapping its cause.
func InternalError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeInternal, Message: msg, Cause: cause}
}

// TimeoutError creates a timeout error for the named operation.
func TimeoutError(operation string) *AppError {
	return &AppError{Type: ErrTypeTimeout, Message: fmt.Sprintf("timeout during %s", operation)}
}

// RateLimitError creates a rate-limit error for the named resource.
func RateLimitError(resource string) *AppError {
	return &AppError{Type: ErrTypeRateLimit, Message: fmt.Sprintf("rate limit exceeded for %s", resource)}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Type == errType
}

// GetType returns err's error type, defaulting to internal for plain errors.
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}
	appErr, ok := err.(*AppError)
	if !ok {
		return ErrTypeInternal
	}
	return appErr.Type
}
