// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package login

// Form field limits, matching what the game client renders.
const (
	accountNameMaxLength = 320
	passwordMaxLength    = 16
)

// NewFormInputs builds the static login form descriptor. It is constructed
// once at startup and never mutated afterwards.
func NewFormInputs() FormInputs {
	return FormInputs{
		Type: "LOGIN_FORM",
		Inputs: []FormInput{
			{
				InputID:   InputAccountName,
				Type:      "text",
				Label:     "E-mail",
				MaxLength: accountNameMaxLength,
			},
			{
				InputID:   InputPassword,
				Type:      "password",
				Label:     "Password",
				MaxLength: passwordMaxLength,
			},
			{
				InputID: "log_in_submit",
				Type:    "submit",
				Label:   "Log In",
			},
		},
	}
}
