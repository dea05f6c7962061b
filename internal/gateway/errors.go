package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned when the API rejects the submitted credentials
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNetworkFailure is returned when the API could not be reached or answered garbage
	ErrNetworkFailure = errors.New("network failure")
	// ErrRefreshTokenMissing is returned by RefreshToken when no refresh token is stored
	ErrRefreshTokenMissing = errors.New("no refresh token available")
	// ErrRefreshFailed is returned when the refresh endpoint rejected the refresh token
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrNotSignedIn is returned by SyncUser when there is no session to update
	ErrNotSignedIn = errors.New("not signed in")
)

// fallbackMessage is shown when the API gives no usable message
const fallbackMessage = "Authentication failed"

// APIError is a non-2xx answer from the auth API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap classifies 401 answers as invalid credentials
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}
	return nil
}

// Message returns the text to show the user for err
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallbackMessage
}
