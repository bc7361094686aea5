package validation

import (
	"fmt"
	"strings"
)

// Field is a named request value with the message reported when it is blank.
type Field struct {
	Name    string
	Value   string
	Message string
}

// MissingFieldError names the first required field that was blank.
type MissingFieldError struct {
	Field   string
	Message string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RequireFields returns a *MissingFieldError for the first blank field, in order.
func RequireFields(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			msg := f.Message
			if msg == "" {
				msg = f.Name + " is required"
			}
			return &MissingFieldError{Field: f.Name, Message: msg}
		}
	}
	return nil
}
