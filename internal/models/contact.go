package models

import (
	"errors"
	"fmt"
)

// Field names one input of the contact form. Values match the HTML input names.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldMessage   Field = "message"
)

// Fields lists every form field in render order.
var Fields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldMessage}

// ErrUnknownField is returned by ParseField for names outside Fields.
var ErrUnknownField = errors.New("unknown field")

// ParseField maps an input name to its Field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// ContactForm holds the raw values of the contact form fields.
type ContactForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Message   string `json:"message,omitempty"`
}

// Get returns the value of field f, or "" for an unknown field.
func (c ContactForm) Get(f Field) string {
	switch f {
	case FieldFirstName:
		return c.FirstName
	case FieldLastName:
		return c.LastName
	case FieldEmail:
		return c.Email
	case FieldMessage:
		return c.Message
	}
	return ""
}

// With returns a copy of c with field f set to value. Unknown fields return c unchanged.
func (c ContactForm) With(f Field, value string) ContactForm {
	switch f {
	case FieldFirstName:
		c.FirstName = value
	case FieldLastName:
		c.LastName = value
	case FieldEmail:
		c.Email = value
	case FieldMessage:
		c.Message = value
	}
	return c
}

// IsEmpty reports whether every field is the empty string.
func (c ContactForm) IsEmpty() bool {
	return c == ContactForm{}
}
