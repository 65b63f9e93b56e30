package kbengine

import (
	"errors"
	"strings"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("kbengine: invalid configuration")

// FieldError names one configuration key (its yaml name) and what is
// wrong with it.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

// ValidationError reports every problem found in a SiteConfig at once.
type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	msgs := make([]string, len(e.Items))
	for i, item := range e.Items {
		msgs[i] = item.Error()
	}
	return "kbengine: invalid configuration: " + strings.Join(msgs, "; ")
}

func (e ValidationError) Unwrap() error { return ErrInvalid }

func (e *ValidationError) add(field, msg string) {
	e.Items = append(e.Items, FieldError{Field: field, Message: msg})
}

// err returns e, or nil when nothing was reported.
func (e ValidationError) err() error {
	if len(e.Items) == 0 {
		return nil
	}
	return e
}
