package model

import "time"

// FormKind identifies one of the authentication forms.
type FormKind string

const (
	FormLogin    FormKind = "login"
	FormRegister FormKind = "register"
)

// Field names shared by the forms, the templates and the upstream payloads.
const (
	FieldName            = "name"
	FieldPhone           = "phone"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Values maps a field name to its current raw input.
type Values map[string]string

// FieldErrors maps a field name to its validation message. A field without an
// entry is valid.
type FieldErrors map[string]string

// Status tracks where a form is in its submission lifecycle.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// MessageKind selects how a status message is styled.
type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is the transient banner shown above a form.
type Message struct {
	Kind MessageKind
	Text string
}

// Empty reports whether there is nothing to show.
func (m Message) Empty() bool {
	return m.Text == ""
}

// FormState is a point-in-time copy of a form instance used for rendering.
type FormState struct {
	Kind           FormKind
	Fields         []string
	Values         Values
	Errors         FieldErrors
	Status         Status
	Message        Message
	InputsDisabled bool
	SubmitLabel    string
}

// Value returns the current value of a field.
func (s FormState) Value(field string) string {
	return s.Values[field]
}

// Error returns the validation message of a field, if any.
func (s FormState) Error(field string) string {
	return s.Errors[field]
}

// Outcome describes how a resolved submission ended and where the visitor
// should go next. Redirect is empty when no navigation is due.
type Outcome struct {
	Status        Status
	Message       Message
	Redirect      string
	RedirectAfter time.Duration
	Cause         error
}

// LoginRequest is the body posted to the login endpoint.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,pkphone"`
	Password string `json:"password" validate:"required,min=4,max=12"`
}

// RegisterRequest is the body posted to the registration endpoint.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,min=3,max=30"`
	Phone           string `json:"phone" validate:"required,pkphone"`
	Password        string `json:"password" validate:"required,min=4,max=12,mixedcase"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// APIError is the optional failure body returned by the auth API.
type APIError struct {
	Error string `json:"error"`
}

// SubmitResponse is returned by the JSON submission endpoints.
type SubmitResponse struct {
	Status          Status      `json:"status"`
	Message         string      `json:"message,omitempty"`
	Errors          FieldErrors `json:"errors,omitempty"`
	Redirect        string      `json:"redirect,omitempty"`
	RedirectAfterMs int64       `json:"redirectAfterMs,omitempty"`
}
