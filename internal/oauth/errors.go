package oauth

import (
	"fmt"
	"net/http"
)

// ErrorCode is an RFC 6749 error identifier.
type ErrorCode string

const (
	ErrInvalidRequest          ErrorCode = "invalid_request"
	ErrInvalidClient           ErrorCode = "invalid_client"
	ErrInvalidGrant            ErrorCode = "invalid_grant"
	ErrInvalidScope            ErrorCode = "invalid_scope"
	ErrUnsupportedGrantType    ErrorCode = "unsupported_grant_type"
	ErrUnsupportedResponseType ErrorCode = "unsupported_response_type"
	ErrAccessDenied            ErrorCode = "access_denied"
	ErrInvalidClientMetadata   ErrorCode = "invalid_client_metadata"
	ErrServerError             ErrorCode = "server_error"
)

// Error is a protocol-level failure that maps onto the standard OAuth error
// response body.
type Error struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewError creates a protocol error with a formatted description.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps the error code to the response status.
// access_denied means the caller's proof failed (upstream rejected the
// exchange, or a refresh token didn't verify) and is surfaced as 401.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case ErrAccessDenied:
		return http.StatusUnauthorized
	case ErrServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
