package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error defines a standard application error classified by Kind.
type Error struct {
	Kind    Kind
	Message string
	// Wrapped underlying error.
	WrappedErr error
}

// Error returns the string representation of the error message.
func (e *Error) Error() string {
	if e.WrappedErr != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.WrappedErr)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.WrappedErr
}

// Kind defines the kind or class of an error.
type Kind uint8

// Transport agnostic error "kinds"
const (
	Other        Kind = iota // Unclassified error
	Internal                 // Internal error
	Conflict                 // Conflict when an entity already exists
	Invalid                  // Invalid input, validation error etc
	NotFound                 // Entity does not exist
	Unauthorized             // Unauthorized access
	Forbidden                // Forbidden access
	Upstream                 // Transient upstream failure (gateway, SMTP)
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal error"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid input"
	case NotFound:
		return "entity not found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Upstream:
		return "upstream failure"
	default:
		return "unclassified error"
	}
}

// E builds an *Error from any combination of Kind, string message and a
// wrapped error, in any order.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case error:
			e.WrappedErr = arg
		case string:
			e.Message = arg
		}
	}
	return e
}

// KindOf extracts the Kind from err, or Other when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Message returns the user-facing message of err. Unclassified errors yield
// a generic message so internals never leak to clients.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Server Error"
}

// HTTPStatus maps an error kind to the HTTP status handlers should reply with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Invalid:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string) error {
	return E(NotFound, msg)
}

// NewInvalidParamsError creates a new invalid parameters error
func NewInvalidParamsError(msg string) error {
	return E(Invalid, msg)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(msg string) error {
	return E(Unauthorized, msg)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return E(Forbidden, msg)
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return E(Conflict, msg)
}

// NewInternalServerError creates a new internal server error
func NewInternalServerError(msg string) error {
	return E(Internal, msg)
}

var (
	As = errors.As
	Is = errors.Is
)
