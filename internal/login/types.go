// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package login implements the login REST surface: form descriptor, the
// asynchronous credential pipeline, and ticket issuance.
package login

// Authentication states reported to the client. The legacy client treats a
// DONE state without a login_ticket as a failed login.
const (
	StateLogin         = "LOGIN"
	StateLegal         = "LEGAL"
	StateAuthenticator = "AUTHENTICATOR"
	StateDone          = "DONE"
)

// Recognized form input identifiers.
const (
	InputAccountName = "account_name"
	InputPassword    = "password"
)

// FormInput describes a single input of the login form descriptor.
type FormInput struct {
	InputID   string `json:"input_id"`
	Type      string `json:"type"`
	Label     string `json:"label"`
	MaxLength uint32 `json:"max_length,omitempty"`
}

// FormInputs is the static login form descriptor served on GET.
type FormInputs struct {
	Type   string      `json:"type"`
	Inputs []FormInput `json:"inputs"`
}

// FormInputValue is one submitted input of a login form.
type FormInputValue struct {
	InputID string `json:"input_id"`
	Value   string `json:"value"`
}

// LoginForm is the POST submission body.
type LoginForm struct {
	Platform string           `json:"platform,omitempty"`
	Program  string           `json:"program,omitempty"`
	Version  string           `json:"version,omitempty"`
	Inputs   []FormInputValue `json:"inputs"`
}

// LoginResult is the terminal response body for a login attempt. A
// successful attempt carries a login ticket; failed credentials produce the
// same DONE state with the ticket omitted so the response shape does not
// reveal which check failed.
type LoginResult struct {
	AuthenticationState string `json:"authentication_state"`
	ErrorCode           string `json:"error_code,omitempty"`
	ErrorMessage        string `json:"error_message,omitempty"`
	LoginTicket         string `json:"login_ticket,omitempty"`
}
