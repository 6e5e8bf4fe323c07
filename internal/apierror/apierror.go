// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// Common messages shared by several handlers.
const (
	MsgInternal      = "Internal server error"
	MsgInvalidID     = "Invalid ID"
	MsgInvalidBody   = "Invalid request body"
	MsgUnauthorized  = "Authentication required"
	MsgForbidden     = "You do not have permission for this action"
	MsgTooManyReqs   = "Too many requests, please try again later"
	MsgRequiredField = "Please fill in required fields"
)
