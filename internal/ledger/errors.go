package ledger

import (
	"fmt"
	"strings"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError is returned when a draft or change set is malformed.
// The store is left unchanged.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NotFoundError is returned when an id does not match any request.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("request %s not found", e.ID)
}

// CorruptDataError is returned when the durable slot holds data that cannot
// be decoded or that contains an invalid entry. Index is -1 when the slot
// as a whole is unreadable.
type CorruptDataError struct {
	Index  int
	Reason string
	Err    error
}

func (e *CorruptDataError) Error() string {
	msg := "corrupt ledger data"
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s at entry %d", msg, e.Index)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}
