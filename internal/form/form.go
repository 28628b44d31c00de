// Package form models one contact form instance as an immutable State
// advanced by a pure reducer. Rendering surfaces read State; they never mutate it.
package form

import (
	"github.com/kjstillabower/contact-form-service/internal/models"
	"github.com/kjstillabower/contact-form-service/internal/validation"
)

// FieldSet is a small bitset of form fields.
type FieldSet uint8

func fieldBit(f models.Field) FieldSet {
	for i, known := range models.Fields {
		if known == f {
			return 1 << i
		}
	}
	return 0
}

// With returns s plus f.
func (s FieldSet) With(f models.Field) FieldSet {
	return s | fieldBit(f)
}

// Has reports whether f is in s.
func (s FieldSet) Has(f models.Field) bool {
	b := fieldBit(f)
	return b != 0 && s&b != 0
}

// State is one contact form instance. The zero value is a freshly mounted, empty form.
// Errors are never stored; they are derived from Values on every read.
type State struct {
	Values    models.ContactForm  `json:"values"`
	Touched   FieldSet            `json:"touched"`
	Attempted bool                `json:"attempted"`
	Submitted *models.ContactForm `json:"submitted,omitempty"`
}

// New returns the state of a freshly mounted form.
func New() State {
	return State{}
}

// Errors returns every current validation failure, visible or not.
func (s State) Errors() validation.Errors {
	return validation.Validate(s.Values)
}

// VisibleErrors returns the errors a rendering surface should display: errors
// of touched fields before the first submit attempt, all errors afterwards.
func (s State) VisibleErrors() validation.Errors {
	all := s.Errors()
	if s.Attempted {
		return all
	}
	visible := validation.Errors{}
	for f, err := range all {
		if s.Touched.Has(f) {
			visible[f] = err
		}
	}
	return visible
}

// Valid reports whether the current values would be accepted by a submit.
func (s State) Valid() bool {
	return len(s.Errors()) == 0
}

// Snapshot returns a copy of the last accepted submission.
func (s State) Snapshot() (models.ContactForm, bool) {
	if s.Submitted == nil {
		return models.ContactForm{}, false
	}
	return *s.Submitted, true
}
