package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Type classifies an error independently of the package that raised it
type Type string

const (
	TypeValidation   Type = "VALIDATION"
	TypeNotFound     Type = "NOT_FOUND"
	TypeBusiness     Type = "BUSINESS"
	TypeInternal     Type = "INTERNAL"
	TypeExternal     Type = "EXTERNAL"
	TypeUnauthorized Type = "UNAUTHORIZED"
)

// Code is a fully qualified error code, e.g. "MEMORY.STORAGE_FAILED"
type Code string

// Error is a coded, typed error carrying an HTTP status and optional details
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetail attaches a key/value pair to the error and returns it
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

type definition struct {
	typ        Type
	httpStatus int
	message    string
}

// Registry holds the error codes of one package under a common prefix
type Registry struct {
	prefix string
	mu     sync.RWMutex
	codes  map[Code]definition
}

// NewRegistry creates a registry whose codes are prefixed with prefix
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		codes:  make(map[Code]definition),
	}
}

// Register declares a code and returns its qualified form
func (r *Registry) Register(name string, typ Type, httpStatus int, message string) Code {
	code := Code(r.prefix + "." + name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codes[code]; exists {
		panic(fmt.Sprintf("errx: duplicate error code %s", code))
	}
	r.codes[code] = definition{typ: typ, httpStatus: httpStatus, message: message}
	return code
}

// New creates an error for a registered code
func (r *Registry) New(code Code) *Error {
	r.mu.RLock()
	def, ok := r.codes[code]
	r.mu.RUnlock()

	if !ok {
		return &Error{
			Code:       code,
			Type:       TypeInternal,
			Message:    "Unknown error",
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	return &Error{
		Code:       code,
		Type:       def.typ,
		Message:    def.message,
		HTTPStatus: def.httpStatus,
	}
}

// NewWithCause creates an error for a registered code wrapping cause
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	e := r.New(code)
	e.Cause = cause
	return e
}

// NewWithMessage creates an error for a registered code with a custom message
func (r *Registry) NewWithMessage(code Code, message string) *Error {
	e := r.New(code)
	e.Message = message
	return e
}

// As extracts the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether any error in err's chain carries code
func IsCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsType reports whether the first *Error in err's chain has the given type
func IsType(err error, typ Type) bool {
	e, ok := As(err)
	return ok && e.Type == typ
}
