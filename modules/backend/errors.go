package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable is returned when the shop backend cannot be reached.
	ErrUnavailable = errors.New("shop backend unavailable")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned for 403 responses.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned for 409 responses, e.g. deleting a product with sales.
	ErrConflict = errors.New("conflict")
	// ErrRejected is returned for any other non-success response.
	ErrRejected = errors.New("request rejected")
)

// maxMessageLength bounds error messages lifted from plain-text bodies.
const maxMessageLength = 300

// APIError is a non-success response from the shop backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shop backend returned %d", e.Status)
	}
	return fmt.Sprintf("shop backend returned %d: %s", e.Status, e.Message)
}

// Unwrap classifies the error by status code.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrRejected
	}
}

// newAPIError reads an error body for a message field, falling back to the
// plain-text body.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	} else {
		msg = strings.TrimSpace(string(body))
		if len(msg) > maxMessageLength {
			msg = msg[:maxMessageLength]
		}
	}
	return &APIError{Status: status, Message: msg}
}

// Message returns the backend-provided message carried by err, if any.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
