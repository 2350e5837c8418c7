package errors

import "net/http"

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// StatusFor maps a domain error to the HTTP status the API responds with.
func StatusFor(err error) int {
	de, ok := err.(*DomainError)
	if !ok {
		return http.StatusInternalServerError
	}
	switch de {
	case ErrInvalidInterval, ErrInvalidOdometer:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict, ErrStaleState:
		return http.StatusConflict
	case ErrVehicleUnavailable, ErrInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
