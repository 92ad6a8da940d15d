package validation

import (
	"sort"
	"strings"
)

// NonFieldErrors keys messages that are not tied to a single field.
const NonFieldErrors = "non_field_errors"

// Errors maps a request field name to its validation messages.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Merge copies every message of other into e.
func (e Errors) Merge(other Errors) {
	for field, messages := range other {
		e[field] = append(e[field], messages...)
	}
}

// Err returns e as an error, or nil when no message was recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Single builds Errors holding one message.
func Single(field, message string) Errors {
	return Errors{field: {message}}
}
