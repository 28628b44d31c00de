package form

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/contact-form-service/internal/models"
	"github.com/kjstillabower/contact-form-service/internal/validation"
)

func typeAll(s State, values models.ContactForm) State {
	for _, f := range models.Fields {
		if v := values.Get(f); v != "" {
			s = Reduce(s, Change(f, v))
		}
	}
	return s
}

func TestNew_IsEmpty(t *testing.T) {
	s := New()
	assert.Equal(t, PhaseEmpty, s.Phase())
	assert.Empty(t, s.VisibleErrors())
	assert.Len(t, s.Errors(), 3)
	_, ok := s.Snapshot()
	assert.False(t, ok)
}

func TestReduce_ShortFirstNameShowsOnlyThatError(t *testing.T) {
	s := Reduce(New(), Change(models.FieldFirstName, "Moe"))

	visible := s.VisibleErrors()
	require.Len(t, visible, 1)
	assert.Equal(t, "firstName must have at least 5 characters.", visible.Message(models.FieldFirstName))
	assert.Equal(t, PhaseInvalid, s.Phase())
}

func TestReduce_EmptySubmitShowsThreeErrors(t *testing.T) {
	s := Reduce(New(), Submit())

	visible := s.VisibleErrors()
	assert.Equal(t, []models.Field{models.FieldFirstName, models.FieldLastName, models.FieldEmail}, visible.Fields())
	assert.False(t, visible.Has(models.FieldMessage))
	assert.Nil(t, s.Submitted)
	assert.Equal(t, PhaseInvalid, s.Phase())
}

func TestReduce_MissingEmailOnSubmit(t *testing.T) {
	s := typeAll(New(), models.ContactForm{FirstName: "Bucky", LastName: "Nahershalahasbaz"})
	s = Reduce(s, Submit())

	assert.Equal(t, []models.Field{models.FieldEmail}, s.VisibleErrors().Fields())
	assert.Nil(t, s.Submitted)
}

func TestReduce_InvalidEmailRegardlessOfOtherFields(t *testing.T) {
	s := Reduce(New(), Change(models.FieldEmail, "asdfasd"))
	assert.Equal(t, []models.Field{models.FieldEmail}, s.VisibleErrors().Fields())

	s = typeAll(New(), models.ContactForm{FirstName: "Bucky", LastName: "Barnes", Email: "asdfasd"})
	assert.Equal(t, "email must be a valid email address.", s.VisibleErrors().Message(models.FieldEmail))
}

func TestReduce_MissingLastNameOnSubmit(t *testing.T) {
	s := typeAll(New(), models.ContactForm{FirstName: "Bucky", Email: "bucky@example.com"})
	s = Reduce(s, Submit())

	assert.Equal(t, []models.Field{models.FieldLastName}, s.VisibleErrors().Fields())
}

func TestReduce_ValidSubmitWithoutMessage(t *testing.T) {
	values := models.ContactForm{FirstName: "Bucky", LastName: "Barnes", Email: "bucky@example.com"}
	s := Reduce(typeAll(New(), values), Submit())

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, values, snap)
	assert.Empty(t, snap.Message)
	assert.Equal(t, PhaseSubmitted, s.Phase())
}

func TestReduce_ValidSubmitWithMessage(t *testing.T) {
	values := models.ContactForm{FirstName: "Bucky", LastName: "Barnes", Email: "bucky@example.com", Message: "Hello there"}
	s := Reduce(typeAll(New(), values), Submit())

	snap, ok := s.Snapshot()
	require.True(t, ok)
	if diff := cmp.Diff(values, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_ResubmitIsIdempotent(t *testing.T) {
	values := models.ContactForm{FirstName: "Bucky", LastName: "Barnes", Email: "bucky@example.com", Message: "again"}
	first := Reduce(typeAll(New(), values), Submit())
	second := Reduce(first, Submit())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("resubmit changed state (-first +second):\n%s", diff)
	}
}

func TestReduce_InvalidResubmitClearsSnapshot(t *testing.T) {
	values := models.ContactForm{FirstName: "Bucky", LastName: "Barnes", Email: "bucky@example.com"}
	s := Reduce(typeAll(New(), values), Submit())
	require.NotNil(t, s.Submitted)

	s = Reduce(s, Change(models.FieldLastName, ""))
	require.NotNil(t, s.Submitted, "editing keeps the snapshot until the next submit")
	assert.Equal(t, PhaseInvalid, s.Phase())

	s = Reduce(s, Submit())
	assert.Nil(t, s.Submitted)
	assert.Equal(t, []models.Field{models.FieldLastName}, s.VisibleErrors().Fields())
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	values := models.ContactForm{FirstName: "Bucky", LastName: "Barnes", Email: "bucky@example.com"}
	before := Reduce(typeAll(New(), values), Submit())
	frozen := before
	snapCopy := *before.Submitted

	after := Reduce(before, Change(models.FieldFirstName, "Steve"))
	after = Reduce(after, Submit())

	assert.Equal(t, frozen.Values, before.Values)
	assert.Equal(t, snapCopy, *before.Submitted)
	assert.NotSame(t, before.Submitted, after.Submitted)
	assert.Equal(t, "Steve", after.Submitted.FirstName)
}

func TestReduce_UnknownInputsAreIgnored(t *testing.T) {
	s := Reduce(New(), Change(models.FieldFirstName, "Bucky"))

	assert.Equal(t, s, Reduce(s, Change("phone", "555")))
	assert.Equal(t, s, Reduce(s, Event{Type: "reset"}))
}

func TestReduce_ErrorsArePureFunctionOfValues(t *testing.T) {
	events := []Event{
		Change(models.FieldFirstName, "Mo"),
		Change(models.FieldEmail, "x"),
		Submit(),
		Change(models.FieldFirstName, "Bucky"),
		Change(models.FieldLastName, "Barnes"),
		Change(models.FieldEmail, "bucky@example.com"),
		Submit(),
		Change(models.FieldMessage, "hi"),
	}
	s := New()
	for i, e := range events {
		s = Reduce(s, e)
		if diff := cmp.Diff(validation.Validate(s.Values).Messages(), s.Errors().Messages()); diff != "" {
			t.Fatalf("step %d: errors diverge from values (-want +got):\n%s", i, diff)
		}
	}
}

func TestReduceAll(t *testing.T) {
	s := ReduceAll(New(),
		Change(models.FieldFirstName, "Bucky"),
		Change(models.FieldLastName, "Barnes"),
		Change(models.FieldEmail, "bucky@example.com"),
		Submit(),
	)
	assert.Equal(t, PhaseSubmitted, s.Phase())
}
