package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Violations maps a form field to a translatable error code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, exists := v[field]; !exists {
		v[field] = code
	}
}

// Merge copies other into v, keeping existing entries.
func (v Violations) Merge(other Violations) {
	for f, c := range other {
		v.Add(f, c)
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func MaxLength(field, value string, n int, v Violations) {
	if len([]rune(value)) > n {
		v.Add(field, "too_long")
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if a == value {
			return
		}
	}
	v.Add(field, "invalid_choice")
}

var phoneRe = regexp.MustCompile(`^(\+[0-9 ]{9,14}|[0-9 ]{9,15})$`)

// IsPhone accepts 9 to 15 digits or spaces with an optional leading plus, at
// most 15 characters in total.
func IsPhone(s string) bool {
	return phoneRe.MatchString(s)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsPhone(fl.Field().String())
		})
	})
	return validate
}

// codes maps validator tags to violation codes.
var codes = map[string]string{
	"required": "required",
	"max":      "too_long",
	"email":    "invalid_email",
	"phone":    "invalid_phone",
	"oneof":    "invalid_choice",
	"gte":      "must_be_positive",
	"min":      "must_be_positive",
}

// Struct validates s using its `validate` tags and returns the violations keyed
// by the `form` tag of each failing field. Non-validation errors are returned as is.
func Struct(s any) (Violations, error) {
	v := Violations{}
	err := engine().Struct(s)
	if err == nil {
		return v, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	for _, fe := range verrs {
		code, ok := codes[fe.Tag()]
		if !ok {
			code = "invalid"
		}
		v.Add(fe.Field(), code)
	}
	return v, nil
}
