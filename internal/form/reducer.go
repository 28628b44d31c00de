package form

import (
	"github.com/kjstillabower/contact-form-service/internal/models"
)

// EventType names the kind of an Event.
type EventType string

const (
	EventChange EventType = "change"
	EventSubmit EventType = "submit"
)

// Event is an input to Reduce. Field and Value are only meaningful for EventChange.
type Event struct {
	Type  EventType    `json:"type"`
	Field models.Field `json:"field,omitempty"`
	Value string       `json:"value,omitempty"`
}

// Change returns a change event setting field f to value.
func Change(f models.Field, value string) Event {
	return Event{Type: EventChange, Field: f, Value: value}
}

// Submit returns a submit event.
func Submit() Event {
	return Event{Type: EventSubmit}
}

// Reduce applies e to s and returns the resulting state. s is never modified;
// the returned state shares no mutable memory with it.
//
// A change to an unknown field and an unknown event type return s unchanged.
// A submit with errors clears any previous snapshot.
func Reduce(s State, e Event) State {
	next := s
	if s.Submitted != nil {
		snap := *s.Submitted
		next.Submitted = &snap
	}

	switch e.Type {
	case EventChange:
		if _, err := models.ParseField(string(e.Field)); err != nil {
			return next
		}
		next.Values = next.Values.With(e.Field, e.Value)
		next.Touched = next.Touched.With(e.Field)
	case EventSubmit:
		next.Attempted = true
		if next.Valid() {
			snap := next.Values
			next.Submitted = &snap
		} else {
			next.Submitted = nil
		}
	}
	return next
}

// ReduceAll folds events over s in order.
func ReduceAll(s State, events ...Event) State {
	for _, e := range events {
		s = Reduce(s, e)
	}
	return s
}
