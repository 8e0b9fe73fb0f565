package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Its-donkey/chatapp-web/internal/ui/authapi"
	"github.com/Its-donkey/chatapp-web/internal/ui/model"
)

var (
	// ErrSubmissionInFlight is returned by Submit while a request is pending.
	ErrSubmissionInFlight = errors.New("forms: submission already in flight")
	// ErrInputsDisabled is returned by SetField while a request is pending.
	ErrInputsDisabled = errors.New("forms: inputs are disabled while submitting")
	// ErrClosed is returned once the form has been torn down.
	ErrClosed = errors.New("forms: form closed")
	// ErrUnknownField is returned for a field the form does not own.
	ErrUnknownField = errors.New("forms: unknown field")
)

const networkErrorMessage = "Network error. Please try again."

// ValidationError carries the message of every invalid field.
type ValidationError struct {
	Fields model.FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "forms: invalid input (" + strings.Join(parts, "; ") + ")"
}

// Definition describes one authentication form.
type Definition struct {
	Kind            model.FormKind
	Fields          []string
	Endpoint        string
	SuccessMessage  string
	FallbackError   string
	SubmitLabel     string
	SubmittingLabel string
	Redirect        string
	RedirectAfter   time.Duration
	MessageTTL      time.Duration
}

// LoginDefinition describes the login form. A successful login navigates to
// postLoginPath straight away.
func LoginDefinition(postLoginPath string, messageTTL time.Duration) Definition {
	return Definition{
		Kind:            model.FormLogin,
		Fields:          []string{model.FieldPhone, model.FieldPassword},
		Endpoint:        authapi.LoginPath,
		SuccessMessage:  "Login Successful",
		FallbackError:   "Invalid credentials",
		SubmitLabel:     "Login",
		SubmittingLabel: "Logging in...",
		Redirect:        postLoginPath,
		MessageTTL:      messageTTL,
	}
}

// RegisterDefinition describes the registration form. A successful
// registration navigates to the login page after redirectAfter.
func RegisterDefinition(redirectAfter, messageTTL time.Duration) Definition {
	return Definition{
		Kind:            model.FormRegister,
		Fields:          []string{model.FieldName, model.FieldPhone, model.FieldPassword, model.FieldConfirmPassword},
		Endpoint:        authapi.RegisterPath,
		SuccessMessage:  "Registration Successful",
		FallbackError:   "Server Error",
		SubmitLabel:     "Create Account",
		SubmittingLabel: "Creating Account...",
		Redirect:        "/login",
		RedirectAfter:   redirectAfter,
		MessageTTL:      messageTTL,
	}
}

func (d Definition) owns(field string) bool {
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// payload builds the upstream request body from the current values.
func (d Definition) payload(values model.Values) any {
	if d.Kind == model.FormRegister {
		return model.RegisterRequest{
			Name:            values[model.FieldName],
			Phone:           values[model.FieldPhone],
			Password:        values[model.FieldPassword],
			ConfirmPassword: values[model.FieldConfirmPassword],
		}
	}
	return model.LoginRequest{
		Phone:    values[model.FieldPhone],
		Password: values[model.FieldPassword],
	}
}

func (d Definition) validate(values model.Values) model.FieldErrors {
	switch req := d.payload(values).(type) {
	case model.RegisterRequest:
		return ValidateRegister(req)
	case model.LoginRequest:
		return ValidateLogin(req)
	}
	return model.FieldErrors{}
}

// failureMessage turns a send error into the text shown to the visitor.
func (d Definition) failureMessage(err error) string {
	var rejection *authapi.ServerRejection
	if errors.As(err, &rejection) {
		if rejection.Message != "" {
			return rejection.Message
		}
		return d.FallbackError
	}
	return networkErrorMessage
}
