package schema

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("http_path", validateHTTPPath)
	_ = v.RegisterValidation("interval", validateInterval)
	return v
}

// validateHTTPPath accepts request paths such as "/hooks/orders"
func validateHTTPPath(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return strings.HasPrefix(p, "/") && !strings.ContainsAny(p, " ?#")
}

// validateInterval accepts positive Go durations such as "5m" or "1h30m"
func validateInterval(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// checkRuleSyntax runs the rules against a zero value so malformed tags
// surface at declaration time. An unknown rule panics inside validator.
func checkRuleSyntax(rules string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid rules %q: %v", rules, r)
		}
	}()
	_ = validate.Var("", rules)
	return nil
}

// IsEmpty reports whether v counts as "not supplied": nil, a blank string, or
// an empty slice or map. Zero numbers and false are values.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Check returns a user-facing message when the value stored for f violates the
// declaration, or "" when it is acceptable. present tells whether the key
// exists in the configuration.
func (f Field) Check(value any, present bool) string {
	if !present || IsEmpty(value) {
		switch {
		case f.Required:
			if f.Message != "" {
				return f.Message
			}
			return f.DisplayName() + " is required"
		case present && f.NonEmpty && value != nil:
			return f.DisplayName() + " must not be empty"
		default:
			return ""
		}
	}

	if msg := f.checkKind(value); msg != "" {
		return msg
	}
	if msg := f.checkBounds(value); msg != "" {
		return msg
	}
	if f.Rules != "" {
		if err := validate.Var(value, f.Rules); err != nil {
			return f.ruleMessage(err)
		}
	}
	return ""
}

func (f Field) checkKind(value any) string {
	switch f.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return f.DisplayName() + " must be text"
		}
	case KindNumber:
		if _, ok := toFloat(value); !ok {
			return f.DisplayName() + " must be a number"
		}
	case KindInteger:
		n, ok := toFloat(value)
		if !ok || n != math.Trunc(n) {
			return f.DisplayName() + " must be a whole number"
		}
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return f.DisplayName() + " must be true or false"
		}
	case KindArray:
		if k := reflect.ValueOf(value).Kind(); k != reflect.Slice && k != reflect.Array {
			return f.DisplayName() + " must be a list"
		}
	case KindObject:
		if reflect.ValueOf(value).Kind() != reflect.Map {
			return f.DisplayName() + " must be an object"
		}
	case KindEnum:
		s, ok := value.(string)
		if !ok || !contains(f.Enum, s) {
			return fmt.Sprintf("%s must be one of %s", f.DisplayName(), strings.Join(f.Enum, ", "))
		}
	}
	return ""
}

func (f Field) checkBounds(value any) string {
	if f.Min == nil && f.Max == nil {
		return ""
	}

	var (
		measure float64
		unit    string
	)
	switch f.Kind {
	case KindNumber, KindInteger:
		measure, _ = toFloat(value)
	case KindString, KindEnum:
		measure = float64(utf8.RuneCountInString(value.(string)))
		unit = " characters"
	case KindArray:
		measure = float64(reflect.ValueOf(value).Len())
		unit = " items"
	default:
		return ""
	}

	if f.Min != nil && measure < *f.Min {
		return fmt.Sprintf("%s must be at least %s%s", f.DisplayName(), formatBound(*f.Min), unit)
	}
	if f.Max != nil && measure > *f.Max {
		return fmt.Sprintf("%s must be at most %s%s", f.DisplayName(), formatBound(*f.Max), unit)
	}
	return ""
}

func (f Field) ruleMessage(err error) string {
	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%s is invalid", f.DisplayName())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "url", "http_url":
		return f.DisplayName() + " must be a valid URL"
	case "email":
		return f.DisplayName() + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", f.DisplayName(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s minimum value/length is %s", f.DisplayName(), fe.Param())
	case "max":
		return fmt.Sprintf("%s maximum value/length is %s", f.DisplayName(), fe.Param())
	case "http_path":
		return f.DisplayName() + " must be a path starting with /"
	case "interval":
		return f.DisplayName() + " must be a duration such as 5m"
	default:
		return fmt.Sprintf("%s failed rule %s", f.DisplayName(), fe.Tag())
	}
}

func asValidationErrors(err error, out *validator.ValidationErrors) bool {
	v, ok := err.(validator.ValidationErrors)
	if ok {
		*out = v
	}
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func formatBound(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
