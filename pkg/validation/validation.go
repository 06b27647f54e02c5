package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/godbus/dbus/v5"
)

var (
	v     *validator.Validate
	vOnce sync.Once

	// Well-known bus name: two or more dot-separated elements, no leading digit.
	busNameRe = regexp.MustCompile(`^[A-Za-z_-][A-Za-z0-9_-]*(\.[A-Za-z_-][A-Za-z0-9_-]*)+$`)
)

// maxBusNameLen is the D-Bus limit on bus name length.
const maxBusNameLen = 255

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New()
		// Custom: well-known D-Bus name such as org.example.Service
		_ = v.RegisterValidation("busname", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return len(s) <= maxBusNameLen && busNameRe.MatchString(s)
		})
		// Custom: D-Bus object path such as /org/example/Object
		_ = v.RegisterValidation("objectpath", func(fl validator.FieldLevel) bool {
			return dbus.ObjectPath(fl.Field().String()).IsValid()
		})
		// Custom: non-negative Go duration string
		_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			d, err := time.ParseDuration(strings.TrimSpace(fl.Field().String()))
			return err == nil && d >= 0
		})
		// Custom: expression text must be non-blank UTF-8 without control characters
		_ = v.RegisterValidation("expression", func(fl validator.FieldLevel) bool {
			return ValidExpressionText(fl.Field().String())
		})
	})
	return v
}

// ValidExpressionText reports whether s could be an expression: valid UTF-8,
// not blank, no control characters other than whitespace.
func ValidExpressionText(s string) bool {
	if !utf8.ValidString(s) || strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "busname":
				return fmt.Sprintf("VALIDATION: %s must be a well-known bus name such as org.example.Search", field)
			case "objectpath":
				return fmt.Sprintf("VALIDATION: %s must be an object path such as /org/example/Search", field)
			case "duration":
				return fmt.Sprintf("VALIDATION: %s must be a duration such as 5s or 250ms", field)
			case "expression":
				return fmt.Sprintf("VALIDATION: %s must be a non-empty expression, e.g. '2 + 2'", field)
			case "oneof":
				return fmt.Sprintf("VALIDATION: %s must be one of [%s]", field, fe.Param())
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			// Fallback generic
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
