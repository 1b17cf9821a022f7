package utils

import (
	"strings"

	"musicschool-news/domain/errs"
)

// ParseOptionalBool reads a form or query flag.
// true/1/yes/on and false/0/no/off are accepted case-insensitively; an empty value means
// "not provided" and yields nil; anything else is a validation error.
func ParseOptionalBool(field, raw string) (*bool, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	var b bool
	switch value {
	case "":
		return nil, nil
	case "true", "1", "yes", "on":
		b = true
	case "false", "0", "no", "off":
		b = false
	default:
		return nil, errs.Validationf("%s must be a boolean, got %q", field, raw)
	}
	return &b, nil
}
