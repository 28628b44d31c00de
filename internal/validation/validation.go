package validation

import (
	"errors"
	"regexp"
	"strings"

	"github.com/kjstillabower/contact-form-service/internal/models"
)

// FirstNameMinLength is the minimum rune count of a trimmed first name.
const FirstNameMinLength = 5

// ErrFirstNameTooShort is returned when the trimmed first name is shorter than FirstNameMinLength.
var ErrFirstNameTooShort = errors.New("first name too short")

// ErrLastNameRequired is returned when the last name is empty or whitespace-only.
var ErrLastNameRequired = errors.New("last name is required")

// ErrEmailInvalid is returned when the email does not look like local@domain.tld.
var ErrEmailInvalid = errors.New("email is not a valid address")

// messages holds the user-facing text for each rule, without the "Error: " prefix.
var messages = map[error]string{
	ErrFirstNameTooShort: "firstName must have at least 5 characters.",
	ErrLastNameRequired:  "lastName is a required field.",
	ErrEmailInvalid:      "email must be a valid email address.",
}

// emailPattern is an RFC 5322-lite shape: a dot-atom local part, then one or
// more DNS labels with at least one dot.
var emailPattern = regexp.MustCompile(
	"^[A-Za-z0-9.!#$%&'*+/=?^_`{|}~-]+" +
		"@[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?" +
		`(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)+$`,
)

// ValidateFirstName trims the input and enforces FirstNameMinLength in runes.
func ValidateFirstName(input string) error {
	if len([]rune(strings.TrimSpace(input))) < FirstNameMinLength {
		return ErrFirstNameTooShort
	}
	return nil
}

// ValidateLastName requires a non-blank value.
func ValidateLastName(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrLastNameRequired
	}
	return nil
}

// ValidateEmail checks the trimmed input against emailPattern.
func ValidateEmail(input string) error {
	if !emailPattern.MatchString(strings.TrimSpace(input)) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidateField runs the rule for field f. Message and unknown fields never fail.
func ValidateField(f models.Field, value string) error {
	switch f {
	case models.FieldFirstName:
		return ValidateFirstName(value)
	case models.FieldLastName:
		return ValidateLastName(value)
	case models.FieldEmail:
		return ValidateEmail(value)
	}
	return nil
}

// Errors maps each failing field to its rule error. A nil or empty Errors means valid.
type Errors map[models.Field]error

// Validate evaluates every field of c and returns the failures.
func Validate(c models.ContactForm) Errors {
	errs := Errors{}
	for _, f := range models.Fields {
		if err := ValidateField(f, c.Get(f)); err != nil {
			errs[f] = err
		}
	}
	return errs
}

// Has reports whether field f failed.
func (e Errors) Has(f models.Field) bool {
	_, ok := e[f]
	return ok
}

// Message returns the display text for field f, or "" if f is valid.
func (e Errors) Message(f models.Field) string {
	err, ok := e[f]
	if !ok {
		return ""
	}
	return Message(err)
}

// Fields returns the failing fields in render order.
func (e Errors) Fields() []models.Field {
	var out []models.Field
	for _, f := range models.Fields {
		if e.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Messages returns field name to display text, for JSON responses.
func (e Errors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for f, err := range e {
		out[string(f)] = Message(err)
	}
	return out
}

// Message returns the user-facing text for a rule error, falling back to err.Error().
func Message(err error) string {
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}
