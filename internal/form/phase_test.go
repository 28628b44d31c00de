package form

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/contact-form-service/internal/models"
)

func TestPhase_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   Phase
	}{
		{"mounted", nil, PhaseEmpty},
		{"typing valid first name", []Event{Change(models.FieldFirstName, "Bucky")}, PhasePartiallyFilled},
		{"typing short first name", []Event{Change(models.FieldFirstName, "Moe")}, PhaseInvalid},
		{"all required valid", []Event{
			Change(models.FieldFirstName, "Bucky"),
			Change(models.FieldLastName, "Barnes"),
			Change(models.FieldEmail, "bucky@example.com"),
		}, PhaseValid},
		{"empty submit", []Event{Submit()}, PhaseInvalid},
		{"valid submit", []Event{
			Change(models.FieldFirstName, "Bucky"),
			Change(models.FieldLastName, "Barnes"),
			Change(models.FieldEmail, "bucky@example.com"),
			Submit(),
		}, PhaseSubmitted},
		{"edit after submit", []Event{
			Change(models.FieldFirstName, "Bucky"),
			Change(models.FieldLastName, "Barnes"),
			Change(models.FieldEmail, "bucky@example.com"),
			Submit(),
			Change(models.FieldMessage, "one more thing"),
		}, PhaseValid},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := ReduceAll(New(), tc.events...)
			assert.Equal(t, tc.want, s.Phase())
		})
	}
}

func TestPhase_JSON(t *testing.T) {
	raw, err := json.Marshal(map[string]Phase{"phase": PhasePartiallyFilled})
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"partially_filled"}`, string(raw))
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestFieldSet(t *testing.T) {
	var s FieldSet
	s = s.With(models.FieldEmail)
	assert.True(t, s.Has(models.FieldEmail))
	assert.False(t, s.Has(models.FieldFirstName))
	assert.False(t, s.Has("phone"))
	assert.Equal(t, s, s.With("phone"))
}
