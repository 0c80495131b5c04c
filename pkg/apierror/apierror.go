package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	DefaultMessage    = "An error occurred"
	NoResponseMessage = "No response from server"
	NoResponseDetails = "Network error or server is down"
	RequestFailedMsg  = "Request failed"
)

// APIError is the single error shape handed to callers of the client. Status
// is the HTTP status, or 0 when no response was received.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	cause   error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}

	return e.Message
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func New(status int, message string, details string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = DefaultMessage
	}
	return &APIError{Status: status, Message: message, Details: details}
}

// FromResponse builds the error for a response with an error status. The
// backend answers with either {"message": ...} or {"error": "..."}.
func FromResponse(status int, body []byte) *APIError {
	var parsed struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	_ = json.Unmarshal(body, &parsed)

	message := strings.TrimSpace(parsed.Message)
	if message == "" {
		var fromError string
		if json.Unmarshal(parsed.Error, &fromError) == nil {
			message = strings.TrimSpace(fromError)
		}
	}

	return New(status, message, rawText(parsed.Details))
}

// NoResponse is used when the request went out but nothing came back.
func NoResponse(cause error) *APIError {
	return &APIError{Status: 0, Message: NoResponseMessage, Details: NoResponseDetails, cause: cause}
}

// RequestFailed is used when the request could not be built or sent.
func RequestFailed(cause error) *APIError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &APIError{Status: 0, Message: RequestFailedMsg, Details: details, cause: cause}
}

// From normalizes any error into an APIError.
func From(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	return RequestFailed(err)
}

func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsNetwork reports whether err carries no HTTP status at all.
func IsNetwork(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	return string(raw)
}
