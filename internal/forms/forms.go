// Package forms validates the sign-in and sign-up forms and drives the
// two-tab login/register flow.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/payhub-dev/payhub/internal/cli/client"
)

// Rule names reported in ValidationErrors
const (
	RuleRequired         = "required"
	RuleRequiredTrue     = "requiredTrue"
	RuleEmail            = "email"
	RuleMinLength        = "minlength"
	RuleMaxLength        = "maxlength"
	RulePattern          = "pattern"
	RulePasswordMismatch = "passwordMismatch"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)
	phonePattern    = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
)

// LoginForm is the sign-in tab
type LoginForm struct {
	Email      string `json:"email" validate:"required,email,emailaddr"`
	Password   string `json:"password" validate:"required,min=6"`
	RememberMe bool   `json:"rememberMe"`
}

// RegisterForm is the sign-up tab
type RegisterForm struct {
	FirstName       string `json:"firstName" validate:"required,min=2,max=50"`
	LastName        string `json:"lastName" validate:"required,min=2,max=50"`
	Username        string `json:"username" validate:"required,min=3,max=20,username"`
	Email           string `json:"email" validate:"required,email,emailaddr"`
	PhoneNumber     string `json:"phoneNumber" validate:"omitempty,phone"`
	PasswordHash    string `json:"passwordHash" validate:"required,min=8,complexity"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=PasswordHash"`
	AgreeTerms      bool   `json:"agreeTerms" validate:"accepted"`
}

// Validate checks the form; the result is nil or ValidationErrors
func (f LoginForm) Validate() error {
	return validateStruct(f)
}

// Request converts the form into the login request body
func (f LoginForm) Request() client.LoginRequest {
	return client.LoginRequest{
		Email:      strings.TrimSpace(f.Email),
		Password:   f.Password,
		RememberMe: f.RememberMe,
	}
}

// Validate checks the form; the result is nil or ValidationErrors
func (f RegisterForm) Validate() error {
	return validateStruct(f)
}

// Request converts the form into the registration request body
func (f RegisterForm) Request() client.RegisterRequest {
	return client.RegisterRequest{
		FirstName:       strings.TrimSpace(f.FirstName),
		LastName:        strings.TrimSpace(f.LastName),
		Username:        strings.TrimSpace(f.Username),
		Email:           strings.TrimSpace(f.Email),
		PhoneNumber:     strings.TrimSpace(f.PhoneNumber),
		PasswordHash:    f.PasswordHash,
		ConfirmPassword: f.ConfirmPassword,
		AgreeTerms:      f.AgreeTerms,
	}
}

// ValidationErrors maps a form field (by its JSON name) to the first rule
// it failed
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

// Rule returns the rule field failed, or ""
func (v ValidationErrors) Rule(field string) string {
	return v[field]
}

// AsValidationErrors unwraps err into ValidationErrors
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	// at least one lowercase letter, one uppercase letter and one digit
	v.RegisterValidation("complexity", func(fl validator.FieldLevel) bool {
		var lower, upper, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return lower && upper && digit
	})
	v.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	})

	return v
}

func validateStruct(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = ruleName(fe.Tag())
	}
	return out
}

func ruleName(tag string) string {
	switch tag {
	case "required":
		return RuleRequired
	case "accepted":
		return RuleRequiredTrue
	case "email", "emailaddr":
		return RuleEmail
	case "min":
		return RuleMinLength
	case "max":
		return RuleMaxLength
	case "eqfield":
		return RulePasswordMismatch
	default:
		return RulePattern
	}
}
