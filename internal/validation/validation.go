// Package validation holds the input rules shared by the HTTP layer and the
// services, and registers them with gin's validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest input bcrypt will hash.
	MaxPasswordBytes = 72
)

// PasswordProblems lists every complexity rule the password breaks, in a
// stable order. An empty result means the password is acceptable.
func PasswordProblems(pw string) []string {
	var (
		problems                     []string
		upper, lower, digit, special bool
	)
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	if len([]rune(pw)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if len(pw) > MaxPasswordBytes {
		problems = append(problems, fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	}
	if !upper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !digit {
		problems = append(problems, "Password must contain at least one number")
	}
	if !special {
		problems = append(problems, "Password must contain at least one special character")
	}
	return problems
}

// IsOTP reports whether s is exactly six ASCII digits.
func IsOTP(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns the
// date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func isPastDate(s string, now time.Time) bool {
	t, err := ParseDate(s)
	return err == nil && !t.After(now)
}

var setupOnce sync.Once

// Setup registers the custom tags (strongpassword, otp, pastdate) with gin's
// validator and makes field errors report JSON names. Safe to call repeatedly.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		Register(v)
	})
}

// Register adds the custom rules to v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return len(PasswordProblems(fl.Field().String())) == 0
	})
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return IsOTP(fl.Field().String())
	})
	_ = v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		return isPastDate(fl.Field().String(), time.Now())
	})
}

// FieldError is one entry of the "errors" array in a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Describe turns a binding error into field-level messages. Errors that are
// not validation failures (bad JSON, wrong types) become a single body error.
func Describe(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: "Request body must be valid JSON"}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "strongpassword" {
			for _, p := range PasswordProblems(fmt.Sprint(fe.Value())) {
				out = append(out, FieldError{Field: fe.Field(), Message: p})
			}
			continue
		}
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

var fieldLabels = map[string]string{
	"firstName":   "First name",
	"lastName":    "Last name",
	"email":       "Email",
	"password":    "Password",
	"dateOfBirth": "Date of birth",
	"phone":       "Phone number",
	"street":      "Street address",
	"town":        "Town/City",
	"country":     "Country",
	"state":       "State",
	"zipCode":     "Zip code",
	"otp":         "OTP",
	"token":       "Token",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label(fe.Field()) + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label(fe.Field()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label(fe.Field()), fe.Param())
	case "otp":
		return "OTP must be 6 digits"
	case "pastdate":
		return "Please enter a valid date of birth"
	}
	return label(fe.Field()) + " is invalid"
}
