// Package errx provides registry-based application errors that carry an HTTP
// status, a stable code, and structured details. Each domain declares its own
// registry so codes stay namespaced (e.g. SCREENING_NOT_FOUND).
package errx

import (
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error for clients and logs.
type Type string

const (
	TypeValidation     Type = "VALIDATION"
	TypeNotFound       Type = "NOT_FOUND"
	TypeConflict       Type = "CONFLICT"
	TypeAuthorization  Type = "AUTHORIZATION"
	TypeAuthentication Type = "AUTHENTICATION"
	TypeBusiness       Type = "BUSINESS"
	TypeExternal       Type = "EXTERNAL"
	TypeInternal       Type = "INTERNAL"
)

// Code identifies a registered error definition.
type Code string

type definition struct {
	code       Code
	errType    Type
	httpStatus int
	message    string
}

// Registry holds the error definitions for one domain.
type Registry struct {
	prefix string

	mu   sync.RWMutex
	defs map[Code]definition
}

// NewRegistry creates a registry whose codes are prefixed with the given
// domain name.
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		defs:   make(map[Code]definition),
	}
}

// Register adds an error definition and returns its code.
func (r *Registry) Register(code string, errType Type, httpStatus int, message string) Code {
	full := Code(r.prefix + "_" + code)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[full] = definition{
		code:       full,
		errType:    errType,
		httpStatus: httpStatus,
		message:    message,
	}
	return full
}

// New creates an error for a registered code.
func (r *Registry) New(code Code) *Error {
	return r.NewWithCause(code, nil)
}

// NewWithCause creates an error for a registered code wrapping an underlying
// cause.
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	r.mu.RLock()
	def, ok := r.defs[code]
	r.mu.RUnlock()

	if !ok {
		// Unregistered codes fall back to a generic internal error rather
		// than panicking in a request path.
		def = definition{
			code:       code,
			errType:    TypeInternal,
			httpStatus: http.StatusInternalServerError,
			message:    "Unknown error",
		}
	}

	return &Error{
		Code:       string(def.code),
		Type:       def.errType,
		Message:    def.message,
		HTTPStatus: def.httpStatus,
		cause:      cause,
	}
}

// Error is a concrete application error instance.
type Error struct {
	Code       string         `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches a single key/value detail and returns the error for
// chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges a detail map into the error.
func (e *Error) WithDetails(details map[string]any) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// ToHTTPResponse renders the error as a JSON-serializable body.
func (e *Error) ToHTTPResponse() map[string]any {
	resp := map[string]any{
		"error":   e.Message,
		"type":    e.Type,
		"code":    e.Code,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		resp["details"] = e.Details
	}
	return resp
}
