package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Details maps each rejected field to the rule it broke, e.g.
// {"password": "min"}. Errors that are not validation errors (malformed
// JSON, wrong types) yield nil.
func Details(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	details := make(map[string]string, len(ve))
	for _, fe := range ve {
		details[lowerFirst(fe.Field())] = fe.Tag()
	}
	return details
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
