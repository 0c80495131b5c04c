package model

import (
	"encoding/json"
	"strings"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	SchoolName string `json:"school_name"`
}

type OperatorRegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
}

// AuthResponse is the body of the login and register endpoints. Some
// deployments answer failures with HTTP 200 and {"error": true, "message": ...},
// so the failure envelope is decoded alongside the success fields.
type AuthResponse struct {
	Token   string          `json:"token"`
	User    User            `json:"user"`
	Error   json.RawMessage `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

const authFailedMessage = "Authentication failed"

// Failure reports whether the body describes a failed attempt and the message
// to show for it.
func (r AuthResponse) Failure() (string, bool) {
	flagged := false
	errText := ""

	raw := strings.TrimSpace(string(r.Error))
	switch {
	case raw == "" || raw == "null" || raw == "false":
	case raw == "true":
		flagged = true
	default:
		flagged = true
		var s string
		if json.Unmarshal(r.Error, &s) == nil {
			errText = strings.TrimSpace(s)
			flagged = errText != ""
		}
	}

	if !flagged && r.Token != "" {
		return "", false
	}

	switch {
	case strings.TrimSpace(r.Message) != "":
		return strings.TrimSpace(r.Message), true
	case errText != "":
		return errText, true
	default:
		return authFailedMessage, true
	}
}

type Message struct {
	Message string `json:"message"`
}
