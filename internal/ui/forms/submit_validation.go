package forms

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Its-donkey/chatapp-web/internal/ui/model"
)

var pakistaniPhonePattern = regexp.MustCompile(`^(\+92[0-9]{10}|03[0-9]{9})$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration of static tag functions only fails on empty tags.
	_ = v.RegisterValidation("pkphone", func(fl validator.FieldLevel) bool {
		return pakistaniPhonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mixedcase", func(fl validator.FieldLevel) bool {
		return hasMixedCaseAndDigit(fl.Field().String())
	})
	return v
}

func hasMixedCaseAndDigit(value string) bool {
	var lower, upper, digit bool
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

var phoneMessages = map[string]string{
	"required": "Phone number is required",
	"pkphone":  "Invalid Pakistani phone number format",
}

// fieldMessages maps form → field → failing tag → user-facing message.
var fieldMessages = map[model.FormKind]map[string]map[string]string{
	model.FormLogin: {
		model.FieldPhone: phoneMessages,
		model.FieldPassword: {
			"required": "Password is required",
			"min":      "Minimum 4 characters",
			"max":      "Maximum 12 characters",
		},
	},
	model.FormRegister: {
		model.FieldName: {
			"required": "Username is required",
			"min":      "Minimum 3 characters",
			"max":      "Maximum 30 characters",
		},
		model.FieldPhone: phoneMessages,
		model.FieldPassword: {
			"required":  "Password is required",
			"min":       "Minimum 4 characters / numbers.",
			"max":       "Maximum 12 characters / numbers",
			"mixedcase": "Password must contain uppercase, lowercase and number",
		},
		model.FieldConfirmPassword: {
			"required": "Please confirm your password",
			"eqfield":  "Passwords do not match",
		},
	},
}

// ValidateLogin checks a login payload and returns a message per invalid field.
func ValidateLogin(req model.LoginRequest) model.FieldErrors {
	return validatePayload(model.FormLogin, req)
}

// ValidateRegister checks a registration payload, including the password
// confirmation against the current password.
func ValidateRegister(req model.RegisterRequest) model.FieldErrors {
	return validatePayload(model.FormRegister, req)
}

func validatePayload(kind model.FormKind, payload any) model.FieldErrors {
	errs := model.FieldErrors{}
	err := validate.Struct(payload)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable for a non-struct payload.
		errs["_form"] = err.Error()
		return errs
	}

	messages := fieldMessages[kind]
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		msg, ok := messages[field][fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		errs[field] = msg
	}
	return errs
}
