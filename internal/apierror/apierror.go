// Package apierror defines the JSON error envelope every handler returns.
// Service and database errors never reach the client verbatim: handlers
// translate them into one of these shapes, so the surface stays uniform and
// internals stay internal.
package apierror

// APIError carries a single human-readable message under "detail".
type APIError struct {
	Detail string `json:"detail"`
}

func New(detail string) *APIError {
	return &APIError{Detail: detail}
}

// ValidationError adds the per-field tag map produced by request validation.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "error de validación", Fields: fields}
}
