package routing

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError carries the field and reason for a rejected value.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidateRequired checks that a string field is not empty.
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: "is required", Value: value}
	}
	return nil
}

// ValidateNonNegative checks that a numeric field is not negative.
func ValidateNonNegative(field string, value int) error {
	if value < 0 {
		return ValidationError{Field: field, Message: "must be non-negative", Value: value}
	}
	return nil
}

// ValidateInSet checks that a value is one of the allowed values.
// Empty values pass; pair with ValidateRequired when the field is mandatory.
func ValidateInSet(field, value string, valid []string) error {
	if value == "" {
		return nil
	}
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %v", valid),
		Value:   value,
	}
}

// containsFold reports whether list contains s, case-insensitively.
func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// intersectsFold reports whether any element of a appears in b,
// case-insensitively.
func intersectsFold(a, b []string) bool {
	for _, v := range a {
		if containsFold(b, v) {
			return true
		}
	}
	return false
}

// toFloat64 converts rule values and context values for numeric comparison.
func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringify renders a rule or context value for string comparison.
func stringify(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// valueList normalizes a custom rule's comparison value for the in / not_in
// operators: arrays are used as-is, strings are split on commas.
func valueList(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = stringify(item)
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	default:
		return []string{stringify(value)}
	}
}

func copyProviders(providers []ProviderInfo) []ProviderInfo {
	out := make([]ProviderInfo, len(providers))
	copy(out, providers)
	return out
}
