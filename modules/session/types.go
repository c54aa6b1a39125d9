package session

import (
	"errors"
	"fmt"

	"github.com/000francisca0/Peluchemaniav3/domain/user"
	"github.com/000francisca0/Peluchemaniav3/modules/backend"
)

// Error codes carried across the request-reply boundary.
const (
	codeUnauthenticated    = "unauthenticated"
	codeInvalidCredentials = "invalid_credentials"
	codeValidation         = "validation"
	codeUnavailable        = "backend_unavailable"
	codeBackend            = "backend"
	codeInternal           = "internal"
)

// ErrorInfo is a service error in transferable form.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// LoginRequest is the request for the session-login service.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request for the session-register service.
type RegisterRequest struct {
	Form RegistrationForm `json:"form"`
}

// GrantResponse is the response of session-login and session-register.
type GrantResponse struct {
	Token   string        `json:"token,omitempty"`
	Session *user.Session `json:"session,omitempty"`
	Error   *ErrorInfo    `json:"error,omitempty"`
}

// ResolveRequest is the request for the session-resolve service.
type ResolveRequest struct {
	Token string `json:"token"`
}

// UpdateAddressRequest is the request for the session-update-address service.
type UpdateAddressRequest struct {
	Token   string       `json:"token"`
	Address user.Address `json:"address"`
}

// SessionResponse is the response of session-resolve and session-update-address.
type SessionResponse struct {
	Session *user.Session `json:"session,omitempty"`
	Error   *ErrorInfo    `json:"error,omitempty"`
}

// LogoutRequest is the request for the session-logout service.
type LogoutRequest struct {
	Token string `json:"token"`
}

// LogoutResponse is the response of the session-logout service.
type LogoutResponse struct {
	Error *ErrorInfo `json:"error,omitempty"`
}

// toErrorInfo classifies err for transport.
func toErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	var verr *ValidationError
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &verr):
		return &ErrorInfo{Code: codeValidation, Message: err.Error(), Fields: verr.Fields}
	case errors.Is(err, ErrInvalidCredentials):
		return &ErrorInfo{Code: codeInvalidCredentials, Message: err.Error()}
	case errors.Is(err, ErrNotAuthenticated):
		return &ErrorInfo{Code: codeUnauthenticated, Message: err.Error()}
	case errors.Is(err, backend.ErrUnavailable):
		return &ErrorInfo{Code: codeUnavailable, Message: err.Error()}
	case errors.As(err, &apiErr):
		return &ErrorInfo{Code: codeBackend, Message: apiErr.Message, Status: apiErr.Status}
	default:
		return &ErrorInfo{Code: codeInternal, Message: err.Error()}
	}
}

// Err rebuilds an error that matches the original sentinels with errors.Is.
func (e *ErrorInfo) Err() error {
	if e == nil {
		return nil
	}

	switch e.Code {
	case codeValidation:
		return &ValidationError{Fields: e.Fields}
	case codeInvalidCredentials:
		return ErrInvalidCredentials
	case codeUnauthenticated:
		return fmt.Errorf("%w: %s", ErrNotAuthenticated, e.Message)
	case codeUnavailable:
		return fmt.Errorf("%w: %s", backend.ErrUnavailable, e.Message)
	case codeBackend:
		return &backend.APIError{Status: e.Status, Message: e.Message}
	default:
		return errors.New(e.Message)
	}
}
