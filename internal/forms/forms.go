// Package forms validates user input before it reaches the auth gateway or
// the API. Messages match what the sign-in and settings screens show.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StrongPasswordTag is the validator tag for password strength
const StrongPasswordTag = "strongpassword"

// StrongPasswordMessage explains the strength rule
const StrongPasswordMessage = "Password must contain uppercase, lowercase, number, special character and be 8+ characters"

// LoginForm is the sign-in input
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterForm is the sign-up input
type RegisterForm struct {
	FirstName       string `json:"firstName" validate:"required,min=2"`
	LastName        string `json:"lastName" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SettingsForm is the profile and preference input
type SettingsForm struct {
	FirstName string `json:"firstName" validate:"required,min=2"`
	LastName  string `json:"lastName" validate:"required,min=2"`
	Email     string `json:"email" validate:"required,email"`
	Language  string `json:"language" validate:"required,oneof=en vi ja fr"`
}

var labels = map[string]string{
	"firstName":       "First name",
	"lastName":        "Last name",
	"email":           "Email",
	"password":        "Password",
	"confirmPassword": "Confirm password",
	"language":        "Language",
}

// FieldError is a single user-facing validation failure
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors lists every failing field in declaration order
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Field returns the message for field, or "" when it is valid
func (v ValidationErrors) Field(field string) string {
	for _, fe := range v {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Validator checks forms
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered
func New() *Validator {
	validate := validator.New()
	if err := Register(validate); err != nil {
		panic(err)
	}
	return &Validator{validate: validate}
}

// Register adds the custom rules to an existing validator, such as gin's
// binding engine, and makes it report fields by their JSON names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(JSONFieldName)
	return v.RegisterValidation(StrongPasswordTag, func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
}

// JSONFieldName names a struct field after its json tag
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// Validate returns nil or ValidationErrors
func (v *Validator) Validate(form any) error {
	return Translate(v.validate.Struct(form))
}

// Translate turns validator errors into ValidationErrors and passes any
// other error through.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: Describe(fe)})
	}
	return out
}

// Describe returns the user-facing message for one failed rule
func Describe(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case StrongPasswordTag:
		return StrongPasswordMessage
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid"
	}
}

// IsStrongPassword reports whether s has at least 8 characters including a
// digit, an upper and a lower case ASCII letter and one of #?!@$%^&*-
func IsStrongPassword(s string) bool {
	var hasNumber, hasUpper, hasLower, hasSpecial bool
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasNumber = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case strings.ContainsRune("#?!@$%^&*-", r):
			hasSpecial = true
		}
	}
	return len(s) >= 8 && hasNumber && hasUpper && hasLower && hasSpecial
}
